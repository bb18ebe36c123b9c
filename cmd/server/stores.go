package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iliyamo/art-gallery/internal/config"
	"github.com/iliyamo/art-gallery/internal/database"
	"github.com/iliyamo/art-gallery/internal/handler"
	"github.com/iliyamo/art-gallery/internal/repository"
)

// stores bundles the repositories of the configured driver together with
// its schema setup, readiness probe and shutdown.
type stores struct {
	accounts repository.AccountStore
	products repository.ProductStore
	ensure   func(ctx context.Context) error
	ping     handler.Probe
	close    func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		accounts := repository.NewMongoAccountRepo(db)
		products := repository.NewMongoProductRepo(db)
		return &stores{
			accounts: accounts,
			products: products,
			ensure: func(ctx context.Context) error {
				if err := accounts.EnsureIndexes(ctx); err != nil {
					return errors.Wrap(err, "account indexes")
				}
				return errors.Wrap(products.EnsureIndexes(ctx), "product indexes")
			},
			ping:  func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.DriverMySQL:
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "connect mysql")
		}
		return &stores{
			accounts: repository.NewMySQLAccountRepo(db),
			products: repository.NewMySQLProductRepo(db),
			ensure: func(ctx context.Context) error {
				return errors.Wrap(database.EnsureSchema(ctx, db), "mysql schema")
			},
			ping:  db.PingContext,
			close: func() { _ = db.Close() },
		}, nil
	}
	return nil, errors.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
