package usecase

import (
	"context"
	"sync"
	"time"

	"SocialPulse/internal/domain/models"
	domrepo "SocialPulse/internal/domain/repository"
	domsvc "SocialPulse/internal/domain/service"
	"SocialPulse/pkg/logger"
)

// EngineConfig is the recognized option surface of the facade.
type EngineConfig struct {
	MinSignalStrength float64
	MinConfidence     float64
	RequiredTypes     []models.SignalType
	AggregationMethod models.AggregationMethod
	CustomAggregate   CustomAggregateFunc
	AlertThresholds   models.AlertThresholds
	EnableStreaming   bool
	StreamingInterval time.Duration
	HistoryCap        int
	DetectorConfig    map[models.SignalType]domsvc.AnalyzerConfigPatch
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinSignalStrength: 0.1,
		MinConfidence:     0.25,
		AggregationMethod: models.AggregateWeighted,
		AlertThresholds: models.AlertThresholds{
			CriticalStrength:     0.8,
			CriticalConfidence:   0.85,
			CombinationThreshold: 0.5,
		},
		StreamingInterval: 5 * time.Second,
		HistoryCap:        DefaultHistoryCap,
	}
}

// DefaultCombinationRules is the built-in corroboration rule set.
func DefaultCombinationRules() []models.CombinationRule {
	strongPair := func(a, b models.SignalType, min float64) func(map[models.SignalType][]models.Signal) bool {
		return func(byType map[models.SignalType][]models.Signal) bool {
			return maxStrength(byType[a]) > min && maxStrength(byType[b]) > min
		}
	}
	return []models.CombinationRule{
		{
			Name:          "smart_influencer_convergence",
			RequiredTypes: []models.SignalType{models.SignalSmartMoney, models.SignalInfluencerNetwork},
			BonusWeight:   0.5,
			Predicate:     strongPair(models.SignalSmartMoney, models.SignalInfluencerNetwork, 0.6),
		},
		{
			Name:          "whale_hype_breakout",
			RequiredTypes: []models.SignalType{models.SignalWhaleAlert, models.SignalVolumeHype},
			BonusWeight:   0.4,
			Predicate:     strongPair(models.SignalWhaleAlert, models.SignalVolumeHype, 0.5),
		},
		{
			Name:          "insider_momentum",
			RequiredTypes: []models.SignalType{models.SignalInsiderLeak, models.SignalCommunityMomentum},
			BonusWeight:   0.6,
			Predicate:     strongPair(models.SignalInsiderLeak, models.SignalCommunityMomentum, 0.55),
		},
	}
}

func maxStrength(signals []models.Signal) float64 {
	best := 0.0
	for _, s := range signals {
		if abs(s.Strength) > best {
			best = abs(s.Strength)
		}
	}
	return best
}

// SignalEngine is the integration facade: it owns the registry, the
// history store and the scheduler, and composes the aggregation,
// alerting and sink plumbing behind AnalyzeText. Built explicitly in
// the composition root; there is no package-level instance.
type SignalEngine struct {
	cfg        EngineConfig
	registry   *Registry
	aggregator *Aggregator
	history    *HistoryStore
	scheduler  *StreamingScheduler
	alerts     *AlertEngine
	rules      []models.CombinationRule

	sentiment domsvc.SentimentProvider
	orders    domrepo.OrderPublisher
	recorder  domrepo.ActivityRecorder
	logger    *logger.Logger
	metrics   domrepo.Metrics

	mu          sync.Mutex
	initialized bool
	alertSubs   map[int]chan []models.Alert
	nextSub     int
	readyFns    []func(analyzerCount int)
	batchPool   int
}

// NewSignalEngine wires the facade. Sentiment, orders and recorder may
// be nil; the engine degrades to best-effort without them.
func NewSignalEngine(
	cfg EngineConfig,
	registry *Registry,
	sentiment domsvc.SentimentProvider,
	orders domrepo.OrderPublisher,
	recorder domrepo.ActivityRecorder,
	lgr *logger.Logger,
	metrics domrepo.Metrics,
) *SignalEngine {
	e := &SignalEngine{
		cfg:        cfg,
		registry:   registry,
		aggregator: NewAggregator(),
		history:    NewHistoryStore(cfg.HistoryCap),
		alerts:     NewAlertEngine(),
		rules:      DefaultCombinationRules(),
		sentiment:  sentiment,
		orders:     orders,
		recorder:   recorder,
		logger:     lgr,
		metrics:    metrics,
		alertSubs:  make(map[int]chan []models.Alert),
		batchPool:  4,
	}
	e.scheduler = NewStreamingScheduler(e.history, e.evaluateTick, lgr, metrics)
	return e
}

// OnReady registers a callback invoked by Init with the analyzer count.
func (e *SignalEngine) OnReady(fn func(analyzerCount int)) {
	e.mu.Lock()
	e.readyFns = append(e.readyFns, fn)
	e.mu.Unlock()
}

// Init applies the detector config, marks the engine usable and fires
// the ready callbacks. When EnableStreaming is set the scheduler starts
// with the configured interval.
func (e *SignalEngine) Init() {
	for t, patch := range e.cfg.DetectorConfig {
		if err := e.registry.UpdateConfig(t, patch); err != nil {
			e.logger.Warn("detector config skipped",
				logger.String("analyzer", string(t)),
				logger.Error(err))
		}
	}

	e.mu.Lock()
	e.initialized = true
	readyFns := e.readyFns
	e.mu.Unlock()

	count := len(e.registry.EnabledTypes())
	for _, fn := range readyFns {
		fn(count)
	}
	e.logger.Info("signal engine ready", logger.Int("analyzers", count))

	if e.cfg.EnableStreaming {
		e.StartStreaming(e.cfg.StreamingInterval)
	}
}

// Registry exposes the orchestrator for config endpoints.
func (e *SignalEngine) Registry() *Registry { return e.registry }

// History exposes the active-signal store for read endpoints.
func (e *SignalEngine) History() *HistoryStore { return e.history }

// AnalyzeText runs one post through the full pipeline. It returns nil
// (and no error) when no signal clears the configured filters; it
// returns ErrNotInitialized when called before Init.
func (e *SignalEngine) AnalyzeText(ctx context.Context, post *models.Post) (*models.AggregatedVerdict, error) {
	e.mu.Lock()
	ready := e.initialized
	e.mu.Unlock()
	if !ready {
		return nil, ErrNotInitialized
	}
	start := time.Now()

	base := e.classify(ctx, post.Text)
	symbol := e.resolveSymbol(post, base)

	result := e.registry.Analyze(ctx, post)
	signals := e.filterSignals(result.Signals, symbol)
	if len(signals) == 0 {
		e.metrics.RecordLatency("analyze_text", time.Since(start).Seconds())
		return nil, nil
	}

	verdict := e.aggregator.Aggregate(signals, e.cfg.AggregationMethod, AggregationContext{
		Symbol:        symbol,
		BaseSentiment: base,
		Rules:         e.rules,
		Custom:        e.cfg.CustomAggregate,
	})

	e.history.Append(symbol, signals)
	alerts := e.alerts.Evaluate(verdict, e.cfg.AlertThresholds)
	e.emitAlerts(symbol, alerts)
	e.flushSinks(ctx, verdict, alerts)

	e.metrics.RecordVerdictStrength(symbol, verdict.OverallStrength)
	e.metrics.RecordLatency("analyze_text", time.Since(start).Seconds())
	return verdict, nil
}

// AnalyzeBatch runs AnalyzeText over the posts through the same fixed
// worker pool policy the registry uses for its own batches. Nil entries
// in the result mark posts that produced no verdict.
func (e *SignalEngine) AnalyzeBatch(ctx context.Context, posts []*models.Post) []*models.AggregatedVerdict {
	out := make([]*models.AggregatedVerdict, len(posts))
	if len(posts) == 0 {
		return out
	}

	workers := e.batchPool
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
				v, err := e.AnalyzeText(ctx, posts[i])
				if err != nil {
					e.logger.Warn("batch analyze failed",
						logger.String("post", posts[i].ID),
						logger.Error(err))
					continue
				}
				out[i] = v
			}
		}()
	}
	for i := range posts {
		idx <- i
	}
	close(idx)
	wg.Wait()
	return out
}

// StartStreaming begins periodic re-evaluation of every active symbol.
func (e *SignalEngine) StartStreaming(interval time.Duration) {
	if interval <= 0 {
		interval = e.cfg.StreamingInterval
	}
	e.scheduler.Start(interval, nil)
}

// StopStreaming cancels the loop and closes update subscriptions.
func (e *SignalEngine) StopStreaming() {
	e.scheduler.Stop()
}

// StreamingActive reports whether the scheduler loop runs.
func (e *SignalEngine) StreamingActive() bool { return e.scheduler.Running() }

// SubscribeUpdates returns a channel of per-tick streaming updates.
func (e *SignalEngine) SubscribeUpdates(buffer int) (<-chan models.StreamingUpdate, func()) {
	return e.scheduler.Subscribe(buffer)
}

// SubscribeAlerts returns a channel receiving each non-empty alert batch.
func (e *SignalEngine) SubscribeAlerts(buffer int) (<-chan []models.Alert, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan []models.Alert, buffer)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.alertSubs[id] = ch
	e.mu.Unlock()

	return ch, func() {
		e.mu.Lock()
		if c, ok := e.alertSubs[id]; ok {
			delete(e.alertSubs, id)
			close(c)
		}
		e.mu.Unlock()
	}
}

// Close stops streaming and releases the sinks.
func (e *SignalEngine) Close() {
	e.StopStreaming()
	if e.orders != nil {
		if err := e.orders.Close(); err != nil {
			e.logger.Warn("order publisher close", logger.Error(err))
		}
	}
	if e.recorder != nil {
		if err := e.recorder.Close(); err != nil {
			e.logger.Warn("recorder close", logger.Error(err))
		}
	}
}

// evaluateTick is the scheduler callback: recompute the verdict for one
// symbol from its currently active signals and evaluate alerts.
func (e *SignalEngine) evaluateTick(ctx context.Context, symbol string, signals []models.Signal) (*models.AggregatedVerdict, []models.Alert, error) {
	verdict := e.aggregator.Aggregate(signals, e.cfg.AggregationMethod, AggregationContext{
		Symbol: symbol,
		Rules:  e.rules,
		Custom: e.cfg.CustomAggregate,
	})
	alerts := e.alerts.Evaluate(verdict, e.cfg.AlertThresholds)
	e.emitAlerts(symbol, alerts)
	e.flushSinks(ctx, verdict, alerts)
	return verdict, alerts, nil
}

// classify is best-effort: a failing sentiment service only costs the
// risk-score bump and the symbol fallback.
func (e *SignalEngine) classify(ctx context.Context, text string) *models.Sentiment {
	if e.sentiment == nil {
		return nil
	}
	s, err := e.sentiment.Classify(ctx, text)
	if err != nil {
		e.logger.Warn("sentiment classify failed", logger.Error(err))
		e.metrics.RecordError("sentiment")
		return nil
	}
	return &s
}

func (e *SignalEngine) resolveSymbol(post *models.Post, base *models.Sentiment) string {
	if post.Symbol != "" {
		return post.Symbol
	}
	if base != nil && len(base.Symbols) > 0 {
		return base.Symbols[0]
	}
	return "UNKNOWN"
}

// filterSignals applies the engine-level strength/confidence minimums
// and the requiredTypes gate, and stamps the symbol into metadata.
func (e *SignalEngine) filterSignals(signals []models.Signal, symbol string) []models.Signal {
	var out []models.Signal
	for _, s := range signals {
		if abs(s.Strength) < e.cfg.MinSignalStrength || s.Confidence < e.cfg.MinConfidence {
			continue
		}
		if s.Metadata == nil {
			s.Metadata = map[string]interface{}{}
		}
		s.Metadata["symbol"] = symbol
		out = append(out, s)
	}
	if len(e.cfg.RequiredTypes) > 0 {
		present := make(map[models.SignalType]bool, len(out))
		for _, s := range out {
			present[s.Type] = true
		}
		for _, t := range e.cfg.RequiredTypes {
			if !present[t] {
				return nil
			}
		}
	}
	return out
}

func (e *SignalEngine) emitAlerts(symbol string, alerts []models.Alert) {
	if len(alerts) == 0 {
		return
	}
	for _, a := range alerts {
		e.metrics.RecordAlert(a.Kind)
	}
	e.mu.Lock()
	for _, ch := range e.alertSubs {
		select {
		case ch <- alerts:
		default:
		}
	}
	e.mu.Unlock()

	e.logger.Info("alerts fired",
		logger.String("symbol", symbol),
		logger.Int("count", len(alerts)))
}

// flushSinks forwards the verdict to the downstream order pipeline and
// the activity recorder. Both are best-effort: failures are logged and
// swallowed, never surfaced to the caller.
func (e *SignalEngine) flushSinks(ctx context.Context, v *models.AggregatedVerdict, alerts []models.Alert) {
	if e.orders != nil {
		if err := e.orders.PublishVerdict(ctx, v); err != nil {
			e.logger.Warn("order pipeline publish failed", logger.Error(err))
			e.metrics.RecordError("order_publish")
		}
	}
	if e.recorder != nil {
		if err := e.recorder.RecordVerdict(ctx, v); err != nil {
			e.logger.Warn("verdict record failed", logger.Error(err))
			e.metrics.RecordError("record_verdict")
		}
		if len(alerts) > 0 {
			if err := e.recorder.RecordAlerts(ctx, v.Symbol, alerts); err != nil {
				e.logger.Warn("alert record failed", logger.Error(err))
				e.metrics.RecordError("record_alerts")
			}
		}
	}
}
