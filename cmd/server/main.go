package main // Entry point package

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "art-gallery",
		Usage:  "Account and product catalog API for the art gallery",
		Flags:  serveFlags(),
		Action: serve, // running without a command starts the server
		Commands: []*cli.Command{
			serveCmd(),
			ensureIndexesCmd(),
			consumeEventsCmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, os.Args)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("application failed")
		os.Exit(1)
	}
}
