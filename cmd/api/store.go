package main

import (
	"context"
	"fmt"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/repository"
	"github.com/authgate/authgate/internal/repository/sqlite"
	"github.com/authgate/authgate/internal/service"
)

// credentialStore is the persistence surface main needs from either driver.
type credentialStore struct {
	service.UserStore
	ping   func(ctx context.Context) error
	close  func() error
	driver string
}

func (s *credentialStore) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *credentialStore) Close() error {
	return s.close()
}

// openStore selects the store from the DATABASE_URL scheme.
func openStore(ctx context.Context, cfg *config.Config) (*credentialStore, error) {
	if sqlite.IsURL(cfg.DatabaseURL) {
		store, err := sqlite.Open(sqlite.PathFromURL(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		return &credentialStore{
			UserStore: store,
			ping:      store.Ping,
			close:     store.Close,
			driver:    "sqlite",
		}, nil
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &credentialStore{
		UserStore: repo,
		ping:      repo.Ping,
		close:     repo.Close,
		driver:    "postgres",
	}, nil
}
