// Package widget bootstraps the feedback and support widgets for an
// authenticated user through an injected SDK.
package widget

import (
	"context"
	"fmt"

	"github.com/authgate/authgate/internal/model"
)

// Kind identifies a widget type understood by the SDK.
type Kind string

const (
	KindButton    Kind = "button"
	KindMessenger Kind = "messenger"
)

// Position is a screen corner.
type Position string

const (
	BottomRight Position = "bottom-right"
	BottomLeft  Position = "bottom-left"
)

// Theme is the widget color scheme.
type Theme string

const ThemeLight Theme = "light"

// Workspace and board the widgets report to.
const (
	Workspace = "zed"
	BoardID   = "zed"
)

// Messenger copy.
const (
	TeamName       = "Product7 Support"
	WelcomeMessage = "How can we help you today?"
)

// Config is passed to a Factory to create an SDK for one user.
type Config struct {
	Workspace   string
	BoardID     string
	UserContext model.UserContext
}

// URLs are the public pages a widget links to.
type URLs struct {
	Feedback  string
	Changelog string
	HelpDocs  string
	Roadmap   string
}

// BaseURLs derives the public page URLs for a workspace subdomain.
func BaseURLs(subdomain string) URLs {
	base := fmt.Sprintf("https://%s.product7.io", subdomain)
	return URLs{
		Feedback:  base + "/feedback",
		Changelog: base + "/changelog",
		HelpDocs:  base + "/help-docs",
		Roadmap:   base + "/roadmap",
	}
}

// Options configures a single widget instance. Zero fields are omitted.
type Options struct {
	Position        Position
	Theme           Theme
	TeamName        string
	WelcomeMessage  string
	EnableHelp      bool
	EnableChangelog bool
	URLs            URLs
}

// Widget is a mountable widget instance.
type Widget interface {
	Mount() error
	Destroy()
}

// SDK is the external widget SDK.
type SDK interface {
	Init(ctx context.Context) error
	CreateWidget(kind Kind, opts Options) (Widget, error)
	Destroy()
}

// Factory constructs an SDK for cfg.
type Factory func(cfg Config) SDK
