package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/shared/logging"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/automoto/shootnrun-mp/systems"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// Headless controlling client: joins a host and plays with the bot brain.
func main() {
	fs := pflag.NewFlagSet("shootnrun", pflag.ExitOnError)
	if err := config.BindFlags(fs); err != nil {
		fmt.Fprintf(os.Stderr, "bind flags: %v\n", err)
		os.Exit(1)
	}
	seed := fs.Int64("seed", time.Now().UnixNano(), "bot random seed")
	_ = fs.Parse(os.Args[1:])

	path, _ := fs.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)

	// Register network components for client-side deserialization
	if err := protocol.RegisterComponents(); err != nil {
		logger.Fatal().Err(err).Msg("failed to register network components")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := network.NewClient(logger)
	client.Connect(cfg.Client.URL, cfg.Server.Version, cfg.Client.PlayerName)
	defer client.Disconnect()

	replica := systems.NewReplica(cfg.Orientation, logger)
	commands := network.NewCommandChannel(client, cfg.Client.ResendInterval, cfg.Client.PendingLimit, logger)
	ctrl := systems.NewController(replica, commands, logger)
	bot := systems.NewBot(ctrl, replica, *seed)

	replica.OnDestroyed(func(m messages.EntityDestroyed) {
		ev := logger.Info().
			Uint32("entity", uint32(m.Entity)).
			Stringer("kind", m.Kind).
			Stringer("cause", m.Cause).
			Uint32("instigator", uint32(m.Instigator))
		if m.Entity == replica.Local() {
			ev.Msg("our character was destroyed")
			stop()
			return
		}
		ev.Msg("entity destroyed")
	})

	if err := run(ctx, client, replica, commands, ctrl, bot, cfg.Client.TickRate, logger); err != nil {
		logger.Error().Err(err).Msg("client stopped")
		os.Exit(1)
	}
}

// statsEvery is how many client frames pass between stats lines.
const statsEvery = 100

func run(ctx context.Context, client *network.Client, replica *systems.Replica, commands *network.CommandChannel, ctrl *systems.Controller, bot *systems.Bot, tickRate int, logger zerolog.Logger) error {
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()
	last := time.Now()
	var frames uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if client.State() == network.StateError {
				return client.LastError()
			}

			if snap := client.LatestSnapshot(); snap != nil {
				replica.ApplySnapshot(*snap)
			}
			for _, msg := range client.Drain() {
				ctrl.Handle(msg)
			}

			dt := now.Sub(last)
			last = now
			ctrl.Update(dt, now)

			if client.State() == network.StateJoinedGame {
				if err := bot.Update(dt); err != nil && !errors.Is(err, network.ErrNotConnected) && !errors.Is(err, network.ErrBacklogFull) {
					return err
				}
			}

			frames++
			if frames%statsEvery == 0 {
				logger.Debug().
					Uint64("frame", frames).
					Stringer("state", client.State()).
					Uint32("entity", uint32(client.Entity())).
					Int("hostTickRate", client.TickRate()).
					Int("entities", replica.Len()).
					Int("pending", commands.Pending()).
					Uint32("acked", commands.Acked()).
					Msg("stats")
			}
		}
	}
}
