// Package backend opens the keyed store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wagonquiz/internal/config"
	"wagonquiz/internal/database"
	"wagonquiz/internal/realtime"
	"wagonquiz/internal/repository"
	"wagonquiz/internal/service"
)

var ErrSQLRequired = errors.New("this command needs BACKEND=sql")

// Backend bundles the stores the services read from and write to
type Backend struct {
	Users   service.UserSource
	Tests   service.TestSource
	Results service.ResultStore

	// DB is set for the SQL backend only
	DB *database.DB
}

// Open connects to the configured backend. The SQL backend is migrated
// before it is returned.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendRealtime:
		if cfg.FirebaseURL == "" {
			return nil, errors.New("FIREBASE_DATABASE_URL is required for the realtime backend")
		}
		client, err := realtime.NewClient(ctx, cfg.FirebaseURL, cfg.FirebaseCredentialsFile, log)
		if err != nil {
			return nil, err
		}
		store := realtime.NewStore(client)
		log.Info("using realtime database", zap.String("url", cfg.FirebaseURL))
		return &Backend{Users: store, Tests: store, Results: store}, nil

	case config.BackendSQL, "":
		db, err := database.InitializeWithConfig(cfg)
		if err != nil {
			return nil, err
		}
		applied, err := db.RunMigrations(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		for _, name := range applied {
			log.Info("applied migration", zap.String("name", name))
		}
		log.Debug("using SQL database", zap.String("type", cfg.DatabaseType))
		return &Backend{
			Users:   repository.NewUserRepository(db),
			Tests:   repository.NewTestRepository(db),
			Results: repository.NewResultRepository(db),
			DB:      db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// RequireSQL returns the SQL database or ErrSQLRequired
func (b *Backend) RequireSQL() (*database.DB, error) {
	if b.DB == nil {
		return nil, ErrSQLRequired
	}
	return b.DB, nil
}

// Accounts returns the writable users store of the SQL backend
func (b *Backend) Accounts() (service.AccountStore, error) {
	db, err := b.RequireSQL()
	if err != nil {
		return nil, err
	}
	return repository.NewUserRepository(db), nil
}

// Close releases the database connection, if any
func (b *Backend) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}
