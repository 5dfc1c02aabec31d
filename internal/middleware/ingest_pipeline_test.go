package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SocialPulse/internal/domain/models"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string)           {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordVerdictStrength(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)         {}
func (nopMetrics) RecordAlert(string)                    {}

type stubEngine struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *stubEngine) AnalyzeText(ctx context.Context, post *models.Post) (*models.AggregatedVerdict, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &models.AggregatedVerdict{Symbol: post.Symbol}, nil
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func validIngestPost(symbol string) *models.Post {
	return &models.Post{
		ID:        "p1",
		Platform:  "twitter",
		Text:      "whale accumulating",
		Symbol:    symbol,
		Timestamp: time.Now(),
	}
}

func TestPipelineRejectsInvalidPosts(t *testing.T) {
	eng := &stubEngine{}
	p := NewIngestPipeline(eng, nopMetrics{})

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("nil post must be rejected")
	}
	empty := validIngestPost("PEPE")
	empty.Text = ""
	if err := p.Process(context.Background(), empty); err == nil {
		t.Fatal("empty text must be rejected")
	}
	stale := validIngestPost("PEPE")
	stale.Timestamp = time.Time{}
	if err := p.Process(context.Background(), stale); err == nil {
		t.Fatal("zero timestamp must be rejected")
	}
	if eng.callCount() != 0 {
		t.Fatalf("invalid posts reached the engine %d times", eng.callCount())
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	eng := &stubEngine{}
	p := NewIngestPipeline(eng, nopMetrics{}, WithMaxRPS(1))

	// two back-to-back posts for one symbol: second is throttled silently
	if err := p.Process(context.Background(), validIngestPost("PEPE")); err != nil {
		t.Fatalf("first post: %v", err)
	}
	if err := p.Process(context.Background(), validIngestPost("PEPE")); err != nil {
		t.Fatalf("throttled post must not error: %v", err)
	}
	if eng.callCount() != 1 {
		t.Fatalf("expected 1 engine call, got %d", eng.callCount())
	}

	// a different symbol has its own budget
	if err := p.Process(context.Background(), validIngestPost("DOGE")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if eng.callCount() != 2 {
		t.Fatalf("expected 2 engine calls, got %d", eng.callCount())
	}
}

func TestPipelineBuffersOnEngineError(t *testing.T) {
	eng := &stubEngine{err: errors.New("engine busy")}
	p := NewIngestPipeline(eng, nopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), validIngestPost("PEPE")); err == nil {
		t.Fatal("engine failure must surface to the caller")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("failed post must be buffered for retry, buffer has %d", len(p.bufCh))
	}
}

func TestPipelineDrainRetriesUntilEngineRecovers(t *testing.T) {
	eng := &stubEngine{err: errors.New("engine busy")}
	p := NewIngestPipeline(eng, nopMetrics{}, WithBufferSize(4))

	_ = p.Process(context.Background(), validIngestPost("PEPE"))

	p.Start(context.Background())
	defer p.Stop()

	// let the drain loop hit the failure at least once, then recover
	time.Sleep(100 * time.Millisecond)
	eng.mu.Lock()
	eng.err = nil
	eng.mu.Unlock()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(p.bufCh) == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("buffered post never drained after engine recovery")
}

func TestPipelineStartStopIdempotent(t *testing.T) {
	p := NewIngestPipeline(&stubEngine{}, nopMetrics{})
	p.Start(context.Background())
	p.Start(context.Background()) // no second goroutine
	p.Stop()
	p.Stop() // no double close panic
}
