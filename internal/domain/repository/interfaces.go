package repository

import (
	"context"
	"time"

	"SocialPulse/internal/domain/models"
)

// OrderPublisher is the downstream trading pipeline. Writes are
// best-effort: failures are logged and never fail the caller.
type OrderPublisher interface {
	PublishVerdict(ctx context.Context, v *models.AggregatedVerdict) error
	Close() error
}

// ActivityRecorder persists verdicts and alerts for offline analysis.
// Fire-and-forget; never on the critical path for correctness.
type ActivityRecorder interface {
	Init(ctx context.Context) error // ensure tables, health checks
	RecordVerdict(ctx context.Context, v *models.AggregatedVerdict) error
	RecordAlerts(ctx context.Context, symbol string, alerts []models.Alert) error
	QueryVerdicts(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AggregatedVerdict, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters and timings.
type Metrics interface {
	RecordSignal(analyzer, symbol string)
	RecordError(kind string)
	RecordVerdictStrength(symbol string, strength float64)
	RecordLatency(op string, seconds float64)
	RecordAlert(kind string)
}
