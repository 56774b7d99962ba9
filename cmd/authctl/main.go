// Command authctl registers, logs in and inspects the current session from a terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/authgate/authgate/internal/client"
	"github.com/authgate/authgate/internal/handler/dto"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/widget"
)

const usage = `usage: authctl [-api URL] [-token-file PATH] [-format plain|json] [-v] <command> [flags]

commands:
  register -email E -name N -password P [-plan P] [-role R] [-company-id ID] [-company-name NAME]
  login    -email E -password P
  me
  logout
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("authctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }

	var (
		apiURL    = global.String("api", envOr("AUTHGATE_API_URL", client.DefaultBaseURL), "API base URL")
		tokenFile = global.String("token-file", os.Getenv("AUTHGATE_TOKEN_FILE"), "token file path")
		format    = global.String("format", "plain", "Output format: plain or json")
		verbose   = global.Bool("v", false, "log widget lifecycle")
	)
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}
	if *format != "plain" && *format != "json" {
		fmt.Fprintln(stderr, "invalid format; use plain or json")
		return 2
	}

	path := *tokenFile
	if path == "" {
		defaultPath, err := client.DefaultTokenPath()
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		path = defaultPath
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	widgets := widget.NewBootstrapper(widget.LogFactory(logger), logger)
	session := client.NewSession(
		client.New(*apiURL, nil),
		client.NewFileStore(path),
		client.OnEstablish(widgets.Init),
		client.OnClear(widgets.Teardown),
		client.WithSessionLogger(logger),
	)

	cmd, cmdArgs := global.Arg(0), global.Args()[1:]

	var (
		user *model.UserContext
		err  error
	)
	switch cmd {
	case "register":
		user, err = register(ctx, session, cmdArgs, stderr)
	case "login":
		user, err = login(ctx, session, cmdArgs, stderr)
	case "me":
		if !session.Restore(ctx) {
			fmt.Fprintln(stderr, "not logged in")
			return 1
		}
		user = session.User()
	case "logout":
		session.Logout()
		fmt.Fprintln(stdout, "logged out")
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		global.Usage()
		return 2
	}

	if err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintln(stderr, client.DisplayMessage(err))
		return 1
	}

	printUser(stdout, *format, user)
	return 0
}

func register(ctx context.Context, session *client.Session, args []string, stderr io.Writer) (*model.UserContext, error) {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		email       = fs.String("email", "", "email address")
		name        = fs.String("name", "", "display name")
		password    = fs.String("password", os.Getenv("AUTHGATE_PASSWORD"), "password")
		plan        = fs.String("plan", "", "plan (default free)")
		role        = fs.String("role", "", "role (default user)")
		companyID   = fs.String("company-id", "", "company ID")
		companyName = fs.String("company-name", "", "company name")
	)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	return session.Register(ctx, dto.RegisterRequest{
		Email:       *email,
		Name:        *name,
		Password:    *password,
		Plan:        *plan,
		Role:        *role,
		CompanyID:   *companyID,
		CompanyName: *companyName,
	})
}

func login(ctx context.Context, session *client.Session, args []string, stderr io.Writer) (*model.UserContext, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		email    = fs.String("email", "", "email address")
		password = fs.String("password", os.Getenv("AUTHGATE_PASSWORD"), "password")
	)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	return session.Login(ctx, *email, *password)
}

func printUser(w io.Writer, format string, user *model.UserContext) {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(dto.MeResponse{Success: true, UserContext: *user})
		return
	}

	fmt.Fprintf(w, "user_id: %s\nemail:   %s\nname:    %s\nplan:    %s\nrole:    %s\n",
		user.UserID, user.Email, user.Name, user.CustomFields.Plan, user.CustomFields.Role)
	if user.Company != nil {
		fmt.Fprintf(w, "company: %s (%s)\n", user.Company.Name, user.Company.ID)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
