package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/art-gallery/internal/config"
	"github.com/iliyamo/art-gallery/internal/handler"
	"github.com/iliyamo/art-gallery/internal/logutil"
	"github.com/iliyamo/art-gallery/internal/media"
	"github.com/iliyamo/art-gallery/internal/queue"
	"github.com/iliyamo/art-gallery/internal/repository"
	"github.com/iliyamo/art-gallery/internal/router"
	"github.com/iliyamo/art-gallery/internal/service"
	"github.com/iliyamo/art-gallery/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// setup loads the configuration and installs the process logger.  The
// returned context carries that logger.
func setup(ctx context.Context) (context.Context, config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, config.Config{}, zerolog.Nop(), errors.Wrap(err, "load config")
	}
	logger := logutil.New(cfg.LogLevel, cfg.LogPretty).With().Str("env", cfg.Env).Logger()
	logutil.SetDefault(logger)
	return logutil.WithLogger(ctx, logger), cfg, logger, nil
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "consume",
			Usage: "Also run the account event consumer in this process (requires EVENTS_ENABLED)",
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP API",
		Flags:  serveFlags(),
		Action: serve,
	}
}

func ensureIndexesCmd() *cli.Command {
	return &cli.Command{
		Name:  "ensure-indexes",
		Usage: "Create the unique indexes (Mongo) or tables (MySQL) and exit",
		Action: func(c *cli.Context) error {
			ctx, cfg, logger, err := setup(c.Context)
			if err != nil {
				return err
			}
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.close()
			if err := st.ensure(ctx); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.StoreDriver).Msg("indexes ready")
			return nil
		},
	}
}

func consumeEventsCmd() *cli.Command {
	return &cli.Command{
		Name:  "consume-events",
		Usage: "Append account registration events from RabbitMQ to the event log",
		Action: func(c *cli.Context) error {
			ctx, cfg, _, err := setup(c.Context)
			if err != nil {
				return err
			}
			return ignoreCanceled(queue.StartAccountConsumer(ctx, cfg.RabbitURL, cfg.EventLogDir))
		},
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// bodyLimit allows the largest media file plus 1 MiB for the other fields.
func bodyLimit(maxMedia int64) string {
	return fmt.Sprintf("%dK", maxMedia/1024+1024)
}

func serve(c *cli.Context) error {
	ctx, cfg, logger, err := setup(c.Context)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()
	if err := st.ensure(ctx); err != nil {
		return err
	}

	accounts := st.accounts
	if cfg.IdentityCacheTTL > 0 {
		cached, err := repository.NewCachedAccountStore(ctx, accounts, cfg.IdentityCacheTTL)
		if err != nil {
			return errors.Wrap(err, "identity cache")
		}
		defer cached.Close()
		accounts = cached
	}

	tokens, err := utils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	uploader, err := media.New(ctx, cfg.Media)
	if err != nil {
		return errors.Wrap(err, "media uploader")
	}
	if _, disabled := uploader.(media.Disabled); disabled {
		logger.Warn().Msg("MEDIA_BUCKET not set; image uploads are disabled")
	}

	var events queue.Publisher = queue.Noop{}
	if cfg.EventsEnabled {
		events = queue.NewAMQPPublisher(cfg.RabbitURL)
		if c.Bool("consume") {
			go func() {
				if err := ignoreCanceled(queue.StartAccountConsumer(ctx, cfg.RabbitURL, cfg.EventLogDir)); err != nil {
					logger.Error().Err(err).Msg("account consumer stopped")
				}
			}()
		}
	}

	auth := service.NewAuthService(accounts, utils.NewBcryptHasher(cfg.BcryptCost), tokens, uploader, events)
	catalog := service.NewCatalogService(st.products, uploader, events)

	probes := map[string]handler.Probe{"store": st.ping}
	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		logger.Warn().Msg("redis unreachable; rate limiting and listing cache are disabled")
	} else {
		defer rdb.Close()
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, router.Deps{
		Logger:    logger,
		Authn:     auth,
		Auth:      handler.NewAuthHandler(auth, cfg.Media.UploadTimeout),
		Products:  handler.NewProductHandler(catalog, cfg.Media.UploadTimeout),
		Site:      handler.NewSiteHandler(cfg.PublicDir),
		Probes:    probes,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		BodyLimit: bodyLimit(cfg.Media.MaxBytes),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ":"+cfg.Port).Str("driver", cfg.StoreDriver).Msg("listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
