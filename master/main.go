package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/shared/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const cleanupInterval = 30 * time.Second

func main() {
	fs := pflag.NewFlagSet("master", pflag.ExitOnError)
	fs.String("config", "", "path to a config file (json, yaml or toml)")
	fs.Int("port", 8080, "HTTP listen port")
	fs.Duration("ttl", 90*time.Second, "server TTL before expiry")
	fs.String("log-level", "info", "log level")
	fs.Bool("log-pretty", false, "human-readable console logs")
	_ = fs.Parse(os.Args[1:])

	_ = viper.BindPFlag("master.port", fs.Lookup("port"))
	_ = viper.BindPFlag("master.ttl", fs.Lookup("ttl"))
	_ = viper.BindPFlag("log.level", fs.Lookup("log-level"))
	_ = viper.BindPFlag("log.pretty", fs.Lookup("log-pretty"))

	path, _ := fs.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "master: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Component(logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty), "master")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := NewRegistry(cfg.Master.TTL, logger)
	go reg.Run(ctx.Done(), cleanupInterval)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Master.Port),
		Handler:           NewMux(reg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", srv.Addr).Dur("ttl", cfg.Master.TTL).Msg("starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("fatal")
	}
}
