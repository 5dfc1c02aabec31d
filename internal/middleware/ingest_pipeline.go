package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SocialPulse/internal/domain/models"
	domrepo "SocialPulse/internal/domain/repository"
)

// Analyzer is the minimal engine surface the pipeline needs.
type Analyzer interface {
	AnalyzeText(ctx context.Context, post *models.Post) (*models.AggregatedVerdict, error)
}

// IngestPipeline sits between the Kafka consumer and the engine. It
// validates posts, throttles per symbol, and buffers when the engine
// rejects work, retrying in the background with backoff.
type IngestPipeline struct {
	engine  Analyzer
	metrics domrepo.Metrics

	maxRPS   int
	bufSize  int
	bufCh    chan *models.Post
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
}

// PipelineOption configures IngestPipeline.
type PipelineOption func(*IngestPipeline)

// WithMaxRPS caps accepted posts per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a stopped pipeline.
func NewIngestPipeline(engine Analyzer, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		engine:   engine,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Post, p.bufSize)
	return p
}

// Start launches background draining of the retry buffer.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case post := <-p.bufCh:
				if post == nil {
					continue
				}
				if _, err := p.engine.AnalyzeText(ctx, post); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- post:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop halts the background drain.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and throttles one post, then runs it through the
// engine, buffering for retry when the engine errors.
func (p *IngestPipeline) Process(ctx context.Context, post *models.Post) error {
	start := time.Now()
	if err := validatePost(post); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(post.Symbol, start) {
		// throttled; drop silently, the firehose will bring more
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if _, err := p.engine.AnalyzeText(ctx, post); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- post:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validatePost(post *models.Post) error {
	if post == nil {
		return fmt.Errorf("post nil")
	}
	if post.Text == "" {
		return fmt.Errorf("text empty")
	}
	if post.Timestamp.IsZero() {
		return fmt.Errorf("timestamp missing")
	}
	return nil
}

func (p *IngestPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 || symbol == "" {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
