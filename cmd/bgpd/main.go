// Command bgpd runs the BGP speaker daemon: load a configuration document,
// build a supervisor from it, and run until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/routerd/bgpd/config"
	"github.com/routerd/bgpd/supervisor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var configPath = flag.String("config", "/etc/bgpd/bgpd.yaml", "path to the YAML configuration document")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("loading configuration")
	}

	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !isTTY(os.Stderr)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sv := supervisor.New(cfg, &logger)
	if err := sv.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("supervisor exited")
	}
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
