package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

func engineFixture(t *testing.T, cfg EngineConfig, analyzers ...*stubAnalyzer) *SignalEngine {
	t.Helper()
	r := NewRegistry(testLogger(t), nopMetrics{})
	for _, a := range analyzers {
		r.Register(a)
	}
	e := NewSignalEngine(cfg, r, nil, nil, nil, testLogger(t), nopMetrics{})
	t.Cleanup(e.Close)
	return e
}

func TestEngineAnalyzeBeforeInit(t *testing.T) {
	e := engineFixture(t, DefaultEngineConfig())
	if _, err := e.AnalyzeText(context.Background(), testPost()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestEngineInitFiresOnReady(t *testing.T) {
	e := engineFixture(t, DefaultEngineConfig(),
		&stubAnalyzer{typ: models.SignalSmartMoney},
		&stubAnalyzer{typ: models.SignalWhaleAlert},
	)

	got := -1
	e.OnReady(func(n int) { got = n })
	e.Init()

	if got != 2 {
		t.Fatalf("expected ready callback with 2 analyzers, got %d", got)
	}
}

func TestEngineInitAppliesDetectorConfig(t *testing.T) {
	off := false
	cfg := DefaultEngineConfig()
	cfg.DetectorConfig = map[models.SignalType]domsvc.AnalyzerConfigPatch{
		models.SignalSmartMoney: {Enabled: &off},
	}
	e := engineFixture(t, cfg,
		&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.7, 0.8)},
		&stubAnalyzer{typ: models.SignalWhaleAlert, signal: stubSig(models.SignalWhaleAlert, 0.6, 0.8)},
	)

	got := -1
	e.OnReady(func(n int) { got = n })
	e.Init()
	if got != 1 {
		t.Fatalf("detector patch must apply before ready callbacks, got %d enabled", got)
	}

	v, err := e.AnalyzeText(context.Background(), testPost())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if v == nil || v.DominantType != models.SignalWhaleAlert {
		t.Fatalf("disabled detector must not contribute, got %+v", v)
	}
}

func TestEngineHappyPath(t *testing.T) {
	e := engineFixture(t, DefaultEngineConfig(),
		&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.7, 0.8)},
	)
	e.Init()

	v, err := e.AnalyzeText(context.Background(), testPost())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if v == nil {
		t.Fatal("expected a verdict")
	}
	if v.Symbol != "PEPE" {
		t.Fatalf("expected symbol from the post, got %q", v.Symbol)
	}
	if len(v.Signals) != 1 || v.DominantType != models.SignalSmartMoney {
		t.Fatalf("unexpected verdict composition: %+v", v)
	}

	active := e.History().ActiveFor("PEPE")
	if len(active) != 1 {
		t.Fatalf("verdict signals must land in history, got %d", len(active))
	}
	if active[0].Metadata["symbol"] != "PEPE" {
		t.Fatalf("signal metadata missing symbol stamp: %v", active[0].Metadata)
	}
}

func TestEngineFiltersDropWeakSignals(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.MinSignalStrength = 0.5
	e := engineFixture(t, cfg,
		&stubAnalyzer{typ: models.SignalVolumeHype, signal: stubSig(models.SignalVolumeHype, 0.3, 0.9)},
	)
	e.Init()

	v, err := e.AnalyzeText(context.Background(), testPost())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if v != nil {
		t.Fatalf("filtered-out post must yield no verdict, got %+v", v)
	}
	if len(e.History().Symbols()) != 0 {
		t.Fatal("filtered post must not touch history")
	}
}

func TestEngineRequiredTypesGate(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.RequiredTypes = []models.SignalType{models.SignalSmartMoney, models.SignalWhaleAlert}
	e := engineFixture(t, cfg,
		&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.7, 0.8)},
	)
	e.Init()

	v, err := e.AnalyzeText(context.Background(), testPost())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if v != nil {
		t.Fatal("missing required type must suppress the verdict")
	}
}

func TestEngineSymbolFallback(t *testing.T) {
	e := engineFixture(t, DefaultEngineConfig(),
		&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.7, 0.8)},
	)
	e.Init()

	post := testPost()
	post.Symbol = ""
	v, err := e.AnalyzeText(context.Background(), post)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if v.Symbol != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN fallback, got %q", v.Symbol)
	}
}

func TestEngineSentimentSymbolFallback(t *testing.T) {
	r := NewRegistry(testLogger(t), nopMetrics{})
	r.Register(&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.7, 0.8)})
	sentiment := stubSentiment{out: models.Sentiment{Score: 0.4, Magnitude: 0.5, Symbols: []string{"WIF"}}}
	e := NewSignalEngine(DefaultEngineConfig(), r, sentiment, nil, nil, testLogger(t), nopMetrics{})
	t.Cleanup(e.Close)
	e.Init()

	post := testPost()
	post.Symbol = ""
	v, err := e.AnalyzeText(context.Background(), post)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if v.Symbol != "WIF" {
		t.Fatalf("expected classifier symbol fallback, got %q", v.Symbol)
	}
}

func TestEngineAlertSubscription(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.AlertThresholds.CriticalStrength = 0.6
	e := engineFixture(t, cfg,
		&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.9, 0.9)},
	)
	e.Init()

	ch, unsub := e.SubscribeAlerts(4)
	defer unsub()

	if _, err := e.AnalyzeText(context.Background(), testPost()); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	select {
	case alerts := <-ch:
		if len(alerts) == 0 {
			t.Fatal("received empty alert batch")
		}
		found := false
		for _, a := range alerts {
			if a.Kind == "high_strength" {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected high_strength in batch, got %+v", alerts)
		}
	case <-time.After(time.Second):
		t.Fatal("no alert batch delivered")
	}
}

func TestEngineSinkFailuresAreSwallowed(t *testing.T) {
	r := NewRegistry(testLogger(t), nopMetrics{})
	r.Register(&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.7, 0.8)})
	orders := &stubOrderPublisher{err: errors.New("broker unavailable")}
	rec := &stubRecorder{err: errors.New("storage down")}
	e := NewSignalEngine(DefaultEngineConfig(), r, nil, orders, rec, testLogger(t), nopMetrics{})
	t.Cleanup(e.Close)
	e.Init()

	v, err := e.AnalyzeText(context.Background(), testPost())
	if err != nil {
		t.Fatalf("sink failures must never surface: %v", err)
	}
	if v == nil {
		t.Fatal("verdict lost to a failing sink")
	}
	if orders.published != 1 {
		t.Fatalf("order sink not attempted, published=%d", orders.published)
	}
	if rec.verdicts != 1 {
		t.Fatalf("recorder not attempted, verdicts=%d", rec.verdicts)
	}
}

func TestEngineAnalyzeBatchPositionalResults(t *testing.T) {
	// signal only fires when the analyzer produces one; the silent
	// analyzer marks its posts with nil verdict slots
	e := engineFixture(t, DefaultEngineConfig(),
		&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.3, 0.8)},
	)
	e.cfg.MinSignalStrength = 0.5
	e.Init()

	quiet := testPost()
	loud := testPost()
	out := e.AnalyzeBatch(context.Background(), []*models.Post{quiet, loud})
	if len(out) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(out))
	}
	for i, v := range out {
		if v != nil {
			t.Fatalf("slot %d should be nil when nothing clears the filters", i)
		}
	}

	e.cfg.MinSignalStrength = 0.1
	out = e.AnalyzeBatch(context.Background(), []*models.Post{quiet, loud})
	if out[0] == nil || out[1] == nil {
		t.Fatal("posts with passing signals must produce verdicts")
	}
}

func TestEngineStreamingLifecycle(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.EnableStreaming = true
	cfg.StreamingInterval = 10 * time.Millisecond
	e := engineFixture(t, cfg,
		&stubAnalyzer{typ: models.SignalSmartMoney, signal: stubSig(models.SignalSmartMoney, 0.7, 0.8)},
	)

	ch, unsub := e.SubscribeUpdates(4)
	defer unsub()

	e.Init()
	if !e.StreamingActive() {
		t.Fatal("Init with EnableStreaming must start the scheduler")
	}

	if _, err := e.AnalyzeText(context.Background(), testPost()); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	select {
	case u := <-ch:
		if u.Symbol != "PEPE" {
			t.Fatalf("unexpected streaming symbol %q", u.Symbol)
		}
		if u.Verdict == nil {
			t.Fatal("streaming update missing verdict")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no streaming update for the active symbol")
	}

	e.StopStreaming()
	if e.StreamingActive() {
		t.Fatal("StopStreaming must halt the scheduler")
	}
}

type stubSentiment struct {
	out models.Sentiment
	err error
}

func (s stubSentiment) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	return s.out, s.err
}

type stubOrderPublisher struct {
	err       error
	published int
}

func (p *stubOrderPublisher) PublishVerdict(ctx context.Context, v *models.AggregatedVerdict) error {
	p.published++
	return p.err
}

func (p *stubOrderPublisher) Close() error { return nil }

type stubRecorder struct {
	err      error
	verdicts int
	alerts   int
}

func (r *stubRecorder) RecordVerdict(ctx context.Context, v *models.AggregatedVerdict) error {
	r.verdicts++
	return r.err
}

func (r *stubRecorder) RecordAlerts(ctx context.Context, symbol string, alerts []models.Alert) error {
	r.alerts++
	return r.err
}

func (r *stubRecorder) Init(ctx context.Context) error { return nil }

func (r *stubRecorder) Health(ctx context.Context) error { return nil }

func (r *stubRecorder) QueryVerdicts(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AggregatedVerdict, error) {
	return nil, nil
}

func (r *stubRecorder) Close() error { return nil }
