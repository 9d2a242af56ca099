package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/platform/config"
	"libraryapi/internal/platform/database"
	"libraryapi/internal/store/memory"
	"libraryapi/internal/user"
)

// Store is an open storage backend and its repositories.
type Store struct {
	Driver  string
	Users   user.Repository
	Books   book.Repository
	Borrows borrow.Repository
	Ping    func(ctx context.Context) error
	Close   func(ctx context.Context) error
}

// OpenStore connects to the backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.Store, logger *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("open postgres (%s): %w", redactDSN(cfg.PostgresDSN), err)
		}
		logger.Info("database connection OK", "driver", cfg.Driver, "dsn", redactDSN(cfg.PostgresDSN))
		return &Store{
			Driver:  cfg.Driver,
			Users:   user.NewPostgresRepo(pool, cfg.QueryTimeout),
			Books:   book.NewPostgresRepo(pool, cfg.QueryTimeout),
			Borrows: borrow.NewPostgresRepo(pool, cfg.QueryTimeout),
			Ping:    pool.Ping,
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.DriverMongo:
		client, db, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo (%s): %w", redactDSN(cfg.MongoURI), err)
		}
		logger.Info("database connection OK", "driver", cfg.Driver, "uri", redactDSN(cfg.MongoURI), "database", cfg.MongoDatabase)
		return &Store{
			Driver:  cfg.Driver,
			Users:   user.NewMongoRepo(db, cfg.QueryTimeout),
			Books:   book.NewMongoRepo(db, cfg.QueryTimeout),
			Borrows: borrow.NewMongoRepo(db, cfg.QueryTimeout),
			Ping: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			},
			Close: client.Disconnect,
		}, nil

	case config.DriverMemory:
		s := memory.New()
		logger.Warn("using in-memory store; data is lost on exit")
		return &Store{
			Driver:  cfg.Driver,
			Users:   s.Users(),
			Books:   s.Books(),
			Borrows: s.Borrows(),
			Ping:    s.Ping,
			Close:   func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// redactDSN hides the credentials of a connection string.
func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
