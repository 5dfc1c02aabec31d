package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SocialPulse/internal/domain/models"
	domrepo "SocialPulse/internal/domain/repository"
	domsvc "SocialPulse/internal/domain/service"
	"SocialPulse/pkg/logger"
)

// AnalysisResult is the outcome of fanning one post out to all enabled
// analyzers. Zero enabled analyzers (or zero produced signals) yields
// the well-defined empty value: score 0, no dominant type, empty
// distribution.
type AnalysisResult struct {
	Signals        []models.Signal
	AggregateScore float64
	DominantType   models.SignalType
	Distribution   map[models.SignalType]int
}

// Registry owns the analyzer table and its per-type configuration. The
// config map is read-mostly shared state: the analyze fan-out and the
// streaming scheduler both read it while updates are rare, so it sits
// behind an RWMutex.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[models.SignalType]domsvc.Analyzer
	order     []models.SignalType // registration order, drives tie-breaks
	configs   map[models.SignalType]domsvc.AnalyzerConfig

	logger  *logger.Logger
	metrics domrepo.Metrics

	// hardening: analyzers have no cancellation once dispatched, so each
	// call gets a bounded deadline instead.
	detectTimeout time.Duration
	batchWorkers  int
}

// RegistryOption configures Registry.
type RegistryOption func(*Registry)

// WithDetectTimeout sets the per-analyzer deadline.
func WithDetectTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.detectTimeout = d
		}
	}
}

// WithBatchWorkers sets the fixed worker-pool size used by AnalyzeBatch.
func WithBatchWorkers(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.batchWorkers = n
		}
	}
}

// NewRegistry creates an empty analyzer registry.
func NewRegistry(lgr *logger.Logger, metrics domrepo.Metrics, opts ...RegistryOption) *Registry {
	r := &Registry{
		analyzers:     make(map[models.SignalType]domsvc.Analyzer),
		configs:       make(map[models.SignalType]domsvc.AnalyzerConfig),
		logger:        lgr,
		metrics:       metrics,
		detectTimeout: 5 * time.Second,
		batchWorkers:  4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an analyzer keyed by its type and immediately applies
// the registry's stored config for that type. Re-registering a type
// replaces the instance but keeps its registration slot.
func (r *Registry) Register(a domsvc.Analyzer) {
	t := a.Type()

	r.mu.Lock()
	if _, seen := r.analyzers[t]; !seen {
		r.order = append(r.order, t)
	}
	r.analyzers[t] = a
	cfg, ok := r.configs[t]
	if !ok {
		cfg = domsvc.AnalyzerConfig{Enabled: true, Sensitivity: 0.5, MinConfidence: 0.3}
		r.configs[t] = cfg
	}
	r.mu.Unlock()

	a.UpdateConfig(cfg)
}

// Unregister removes the analyzer for a type. In-flight detections hold
// their own reference and complete (or time out) without touching
// registry state.
func (r *Registry) Unregister(t models.SignalType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.analyzers, t)
	for i, o := range r.order {
		if o == t {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// UpdateConfig merges a partial config into the stored one and pushes
// the result to the live analyzer. Updates against a type with no
// registered analyzer return ErrUnknownAnalyzer and change nothing.
func (r *Registry) UpdateConfig(t models.SignalType, patch domsvc.AnalyzerConfigPatch) error {
	r.mu.Lock()
	a, ok := r.analyzers[t]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownAnalyzer
	}
	cfg := patch.Apply(r.configs[t])
	r.configs[t] = cfg
	r.mu.Unlock()

	a.UpdateConfig(cfg)
	return nil
}

// EnabledTypes returns the enabled analyzer types in registration order.
func (r *Registry) EnabledTypes() []models.SignalType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.SignalType, 0, len(r.order))
	for _, t := range r.order {
		if _, ok := r.analyzers[t]; ok && r.configs[t].Enabled {
			out = append(out, t)
		}
	}
	return out
}

// Config returns a defensive snapshot of the per-type configuration.
func (r *Registry) Config() map[models.SignalType]domsvc.AnalyzerConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[models.SignalType]domsvc.AnalyzerConfig, len(r.configs))
	for t, c := range r.configs {
		out[t] = c
	}
	return out
}

type detection struct {
	typ models.SignalType
	sig *models.Signal
	err error
}

// Analyze fans the post out to every enabled analyzer concurrently and
// waits for all outcomes. One analyzer failing (error or panic) never
// aborts the batch: it is logged, counted, and contributes no signal.
func (r *Registry) Analyze(ctx context.Context, post *models.Post) *AnalysisResult {
	r.mu.RLock()
	order := make([]models.SignalType, len(r.order))
	copy(order, r.order)
	snapshot := make(map[models.SignalType]domsvc.Analyzer, len(order))
	minConf := make(map[models.SignalType]float64, len(order))
	for _, t := range order {
		a, ok := r.analyzers[t]
		if !ok || !r.configs[t].Enabled {
			continue
		}
		snapshot[t] = a
		minConf[t] = r.configs[t].MinConfidence
	}
	r.mu.RUnlock()

	res := &AnalysisResult{Distribution: make(map[models.SignalType]int)}
	if len(snapshot) == 0 {
		return res
	}

	ch := make(chan detection, len(snapshot))
	var wg sync.WaitGroup
	for t, a := range snapshot {
		wg.Add(1)
		go func(t models.SignalType, a domsvc.Analyzer) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					ch <- detection{typ: t, err: fmt.Errorf("analyzer panic: %v", p)}
				}
			}()
			dctx, cancel := context.WithTimeout(ctx, r.detectTimeout)
			defer cancel()
			sig, err := a.Detect(dctx, post)
			ch <- detection{typ: t, sig: sig, err: err}
		}(t, a)
	}
	go func() { wg.Wait(); close(ch) }()

	byType := make(map[models.SignalType]models.Signal, len(snapshot))
	for d := range ch {
		if d.err != nil {
			r.logger.Warn("analyzer failed",
				logger.String("analyzer", string(d.typ)),
				logger.Error(d.err))
			r.metrics.RecordError("analyzer_" + string(d.typ))
			continue
		}
		if d.sig == nil {
			continue
		}
		sig := d.sig.Clamp()
		if sig.Confidence < minConf[d.typ] {
			continue
		}
		byType[d.typ] = sig
	}

	// Walk registration order so the dominant pick is deterministic:
	// largest |strength| wins, first-registered wins ties.
	var best float64 = -1
	var scoreSum float64
	for _, t := range order {
		sig, ok := byType[t]
		if !ok {
			continue
		}
		res.Signals = append(res.Signals, sig)
		res.Distribution[sig.Type]++
		scoreSum += sig.Strength * sig.Confidence
		if abs(sig.Strength) > best {
			best = abs(sig.Strength)
			res.DominantType = sig.Type
		}
	}
	if n := len(res.Signals); n > 0 {
		res.AggregateScore = models.ClampStrength(scoreSum / float64(n))
		r.metrics.RecordSignal("all", post.Symbol)
	}
	return res
}

// AnalyzeBatch applies Analyze to each post through a fixed worker pool.
// This is the one batch-concurrency policy in the codebase; the redis
// batch-job consumer funnels through it too.
func (r *Registry) AnalyzeBatch(ctx context.Context, posts []*models.Post) []*AnalysisResult {
	results := make([]*AnalysisResult, len(posts))
	if len(posts) == 0 {
		return results
	}

	workers := r.batchWorkers
	if workers > len(posts) {
		workers = len(posts)
	}
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = r.Analyze(ctx, posts[i])
			}
		}()
	}
	for i := range posts {
		idx <- i
	}
	close(idx)
	wg.Wait()
	return results
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
