package widget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/authgate/authgate/internal/model"
)

// Bootstrapper mounts the button and messenger widgets once per session.
type Bootstrapper struct {
	factory Factory
	logger  *slog.Logger

	mu          sync.Mutex
	initialized bool
	sdk         SDK
	button      Widget
	messenger   Widget
}

// NewBootstrapper creates a Bootstrapper that builds SDKs with factory.
func NewBootstrapper(factory Factory, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrapper{factory: factory, logger: logger}
}

// Init creates the SDK for user and mounts both widgets.
// It is a no-op for a nil user or when already initialized.
// Failures are logged and leave the bootstrapper uninitialized.
func (b *Bootstrapper) Init(ctx context.Context, user *model.UserContext) {
	if user == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return
	}

	if err := b.mount(ctx, user); err != nil {
		b.logger.Error("widget initialization failed",
			"user_id", user.UserID,
			"error", err,
		)
		b.destroyLocked()
		return
	}

	b.initialized = true
	b.logger.Info("widgets initialized", "user_id", user.UserID)
}

func (b *Bootstrapper) mount(ctx context.Context, user *model.UserContext) error {
	b.sdk = b.factory(Config{
		Workspace:   Workspace,
		BoardID:     BoardID,
		UserContext: *user,
	})
	if b.sdk == nil {
		return fmt.Errorf("factory returned nil SDK")
	}

	if err := b.sdk.Init(ctx); err != nil {
		return fmt.Errorf("init sdk: %w", err)
	}

	urls := BaseURLs(Workspace)

	button, err := b.sdk.CreateWidget(KindButton, Options{
		Position: BottomRight,
		Theme:    ThemeLight,
		URLs:     URLs{Feedback: urls.Feedback},
	})
	if err != nil {
		return fmt.Errorf("create button: %w", err)
	}
	b.button = button
	if err := button.Mount(); err != nil {
		return fmt.Errorf("mount button: %w", err)
	}

	messenger, err := b.sdk.CreateWidget(KindMessenger, Options{
		Position:        BottomLeft,
		Theme:           ThemeLight,
		TeamName:        TeamName,
		WelcomeMessage:  WelcomeMessage,
		EnableHelp:      true,
		EnableChangelog: true,
		URLs:            urls,
	})
	if err != nil {
		return fmt.Errorf("create messenger: %w", err)
	}
	b.messenger = messenger
	if err := messenger.Mount(); err != nil {
		return fmt.Errorf("mount messenger: %w", err)
	}

	return nil
}

// Teardown destroys both widgets and the SDK. Init may be called again afterwards.
func (b *Bootstrapper) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		b.logger.Info("widgets torn down")
	}
	b.destroyLocked()
}

func (b *Bootstrapper) destroyLocked() {
	if b.messenger != nil {
		b.messenger.Destroy()
		b.messenger = nil
	}
	if b.button != nil {
		b.button.Destroy()
		b.button = nil
	}
	if b.sdk != nil {
		b.sdk.Destroy()
		b.sdk = nil
	}
	b.initialized = false
}

// Initialized reports whether the widgets are mounted.
func (b *Bootstrapper) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}
