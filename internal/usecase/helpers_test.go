package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
	"SocialPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// nopMetrics satisfies the metrics contract without a registry.
type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string)           {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordVerdictStrength(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)         {}
func (nopMetrics) RecordAlert(string)                    {}

func sig(t models.SignalType, strength, confidence float64, dir models.Direction) models.Signal {
	return models.Signal{
		ID:         string(t) + "-test",
		Type:       t,
		Strength:   strength,
		Confidence: confidence,
		Direction:  dir,
		Timeframe:  time.Hour,
		Timestamp:  time.Now(),
	}
}

// stubAnalyzer is a scripted analyzer for orchestration tests.
type stubAnalyzer struct {
	typ    models.SignalType
	signal *models.Signal
	err    error
	panics bool

	mu    sync.Mutex
	cfg   domsvc.AnalyzerConfig
	calls int
}

func (a *stubAnalyzer) Type() models.SignalType { return a.typ }

func (a *stubAnalyzer) Detect(ctx context.Context, post *models.Post) (*models.Signal, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.panics {
		panic("scripted panic")
	}
	if a.err != nil {
		return nil, a.err
	}
	if a.signal == nil {
		return nil, nil
	}
	cp := *a.signal
	return &cp, nil
}

func (a *stubAnalyzer) DetectBatch(ctx context.Context, posts []*models.Post) ([]*models.Signal, error) {
	out := make([]*models.Signal, len(posts))
	for i, p := range posts {
		s, err := a.Detect(ctx, p)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (a *stubAnalyzer) UpdateConfig(cfg domsvc.AnalyzerConfig) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
}

func (a *stubAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
