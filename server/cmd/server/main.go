package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/server/core"
	"github.com/automoto/shootnrun-mp/shared/logging"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	if err := config.BindFlags(fs); err != nil {
		fatal(err, "bind flags")
	}
	_ = fs.Parse(os.Args[1:])

	path, _ := fs.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fatal(err, "load config")
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)

	if err := protocol.RegisterComponents(); err != nil {
		logger.Fatal().Err(err).Msg("failed to register components")
	}

	transport := core.NewNecsTransport(logger)
	server, err := core.NewServer(cfg, transport, logger, core.WithReplicator(core.NewEsyncReplicator()))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}
	transport.Bind(server)

	for i := 0; i < cfg.Server.Dummies; i++ {
		id := server.SpawnHostCharacter()
		logger.Info().Uint32("entity", uint32(id)).Msg("spawned target dummy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.MasterURL != "" {
		go core.NewRegistration(cfg.Server, server, logger).Run(ctx)
	}

	go func() {
		logger.Info().
			Str("name", cfg.Server.Name).
			Int("port", cfg.Server.Port).
			Int("tickRate", cfg.Server.TickRate).
			Str("version", cfg.Server.Version).
			Msg("starting server")
		if err := transport.Listen(uint(cfg.Server.Port)); err != nil {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	server.Run(ctx)
	logger.Info().Msg("shutting down server")
}

func fatal(err error, msg string) {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	l.Fatal().Err(err).Msg(msg)
}
