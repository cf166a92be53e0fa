package core

import (
	"context"
	"fmt"

	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/automoto/shootnrun-mp/server/core"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics counts host activity. Instruments come from the global OTel meter
// (no-op unless a provider is installed); running totals are also kept
// locally for the periodic stats log line.
type Metrics struct {
	accepted    metric.Int64Counter
	rejected    metric.Int64Counter
	duplicate   metric.Int64Counter
	projectiles metric.Int64Counter
	destroyed   metric.Int64Counter
	players     metric.Int64ObservableGauge

	totals Stats
}

// Stats is a point-in-time copy of the running totals.
type Stats struct {
	Accepted    int64
	Rejected    int64
	Duplicate   int64
	Projectiles int64
	Destroyed   int64
}

// NewMetrics registers the host instruments. players is polled by the
// connected-players gauge.
func NewMetrics(players func() int64) (*Metrics, error) {
	m := &Metrics{}
	mt := meter()

	var err error
	if m.accepted, err = mt.Int64Counter("commands.accepted",
		metric.WithDescription("Commands validated and applied")); err != nil {
		return nil, fmt.Errorf("creating accepted counter: %w", err)
	}
	if m.rejected, err = mt.Int64Counter("commands.rejected",
		metric.WithDescription("Commands refused by validation")); err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	if m.duplicate, err = mt.Int64Counter("commands.duplicate",
		metric.WithDescription("Re-delivered commands dropped before apply")); err != nil {
		return nil, fmt.Errorf("creating duplicate counter: %w", err)
	}
	if m.projectiles, err = mt.Int64Counter("projectiles.spawned",
		metric.WithDescription("Projectiles fired")); err != nil {
		return nil, fmt.Errorf("creating projectiles counter: %w", err)
	}
	if m.destroyed, err = mt.Int64Counter("entities.destroyed",
		metric.WithDescription("Entities destroyed, by kind and cause")); err != nil {
		return nil, fmt.Errorf("creating destroyed counter: %w", err)
	}

	if m.players, err = mt.Int64ObservableGauge("session.players",
		metric.WithDescription("Players currently joined")); err != nil {
		return nil, fmt.Errorf("creating players gauge: %w", err)
	}
	if players != nil {
		if _, err = mt.RegisterCallback(
			func(ctx context.Context, o metric.Observer) error {
				o.ObserveInt64(m.players, players())
				return nil
			},
			m.players,
		); err != nil {
			return nil, fmt.Errorf("registering players callback: %w", err)
		}
	}

	return m, nil
}

func kindAttr(kind messages.CommandKind) metric.AddOption {
	return metric.WithAttributes(attribute.String("kind", kind.String()))
}

func (m *Metrics) CommandAccepted(kind messages.CommandKind) {
	m.accepted.Add(context.Background(), 1, kindAttr(kind))
	m.totals.Accepted++
}

func (m *Metrics) CommandRejected(kind messages.CommandKind) {
	m.rejected.Add(context.Background(), 1, kindAttr(kind))
	m.totals.Rejected++
}

func (m *Metrics) CommandDuplicate() {
	m.duplicate.Add(context.Background(), 1)
	m.totals.Duplicate++
}

func (m *Metrics) ProjectileSpawned() {
	m.projectiles.Add(context.Background(), 1)
	m.totals.Projectiles++
}

func (m *Metrics) EntityDestroyed(kind netconfig.ActorKind, cause netconfig.DestroyCause) {
	m.destroyed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", kind.String()),
		attribute.String("cause", cause.String()),
	))
	m.totals.Destroyed++
}

// Stats returns the running totals. Only the game loop goroutine may call it.
func (m *Metrics) Stats() Stats {
	return m.totals
}
