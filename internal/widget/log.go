package widget

import (
	"context"
	"log/slog"
)

// LogSDK is an SDK that records lifecycle calls to a logger.
// It is used where no real widget runtime exists, such as a terminal.
type LogSDK struct {
	cfg    Config
	logger *slog.Logger
}

// LogFactory returns a Factory producing LogSDKs bound to logger.
func LogFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(cfg Config) SDK {
		return &LogSDK{cfg: cfg, logger: logger}
	}
}

// Init logs SDK initialization.
func (s *LogSDK) Init(ctx context.Context) error {
	s.logger.InfoContext(ctx, "widget sdk init",
		"workspace", s.cfg.Workspace,
		"board_id", s.cfg.BoardID,
		"user_id", s.cfg.UserContext.UserID,
	)
	return nil
}

// CreateWidget returns a logging widget of kind.
func (s *LogSDK) CreateWidget(kind Kind, opts Options) (Widget, error) {
	return &logWidget{kind: kind, opts: opts, logger: s.logger}, nil
}

// Destroy logs SDK teardown.
func (s *LogSDK) Destroy() {
	s.logger.Info("widget sdk destroyed", "workspace", s.cfg.Workspace)
}

type logWidget struct {
	kind   Kind
	opts   Options
	logger *slog.Logger
}

func (w *logWidget) Mount() error {
	w.logger.Info("widget mounted",
		"kind", w.kind,
		"position", w.opts.Position,
		"theme", w.opts.Theme,
	)
	return nil
}

func (w *logWidget) Destroy() {
	w.logger.Info("widget destroyed", "kind", w.kind)
}
