package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SocialPulse/internal/domain/models"
	domrepo "SocialPulse/internal/domain/repository"
	"SocialPulse/pkg/logger"
)

// tickEvaluator recomputes one symbol's verdict and alerts from its
// active signals. Supplied by the engine so the scheduler stays free of
// aggregation policy.
type tickEvaluator func(ctx context.Context, symbol string, signals []models.Signal) (*models.AggregatedVerdict, []models.Alert, error)

// StreamingScheduler runs the periodic re-evaluation loop. Start is
// re-entrant safe (a second Start fully cancels the previous loop
// first) and Stop is idempotent. Ticks are strictly sequential: the
// next tick cannot begin before the current one returns, so no two
// recomputations for the same symbol ever overlap.
type StreamingScheduler struct {
	history *HistoryStore
	eval    tickEvaluator
	logger  *logger.Logger
	metrics domrepo.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	subs    map[int]chan models.StreamingUpdate
	nextSub int
}

// NewStreamingScheduler creates a stopped scheduler.
func NewStreamingScheduler(history *HistoryStore, eval tickEvaluator, lgr *logger.Logger, metrics domrepo.Metrics) *StreamingScheduler {
	return &StreamingScheduler{
		history: history,
		eval:    eval,
		logger:  lgr,
		metrics: metrics,
		subs:    make(map[int]chan models.StreamingUpdate),
	}
}

// Subscribe registers an update channel. The returned func removes the
// subscription; the channel is also closed when the scheduler stops.
func (s *StreamingScheduler) Subscribe(buffer int) (<-chan models.StreamingUpdate, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan models.StreamingUpdate, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.mu.Unlock()
	}
}

// Start begins the periodic loop. A running loop is cancelled and fully
// drained before the new one is issued, so two Starts never leave two
// timers behind. The previous loop is waited on outside the mutex: a
// tick mid-publish needs that mutex to finish, and waiting while
// holding it would deadlock.
func (s *StreamingScheduler) Start(interval time.Duration, onUpdate func(models.StreamingUpdate)) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	prevCancel, prevDone := s.cancel, s.done
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	go s.loop(ctx, interval, onUpdate, done)
	s.logger.Info("streaming started", logger.Duration("interval", interval))
}

// Stop cancels the loop, waits for it to drain and closes subscriber
// channels. Safe to call when not running. Channels are closed only
// after the loop has exited, so publish can never send on a closed
// channel.
func (s *StreamingScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	subs := s.subs
	s.subs = make(map[int]chan models.StreamingUpdate)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	for _, ch := range subs {
		close(ch)
	}
}

// Running reports whether the loop is active.
func (s *StreamingScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *StreamingScheduler) loop(ctx context.Context, interval time.Duration, onUpdate func(models.StreamingUpdate), done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, interval, onUpdate)
		}
	}
}

// tick recomputes every symbol with activity in the window. Symbols are
// processed sequentially; one failing symbol is logged and skipped, the
// rest of the tick continues.
func (s *StreamingScheduler) tick(ctx context.Context, interval time.Duration, onUpdate func(models.StreamingUpdate)) {
	start := time.Now()
	cutoff := start.Add(-interval)

	for symbol, signals := range s.history.AllActive() {
		update, err := s.evaluateSymbol(ctx, symbol, signals, cutoff)
		if err != nil {
			s.logger.Warn("tick evaluation failed",
				logger.String("symbol", symbol),
				logger.Error(err))
			s.metrics.RecordError("tick_" + symbol)
			continue
		}
		s.publish(update, onUpdate)
	}
	s.metrics.RecordLatency("streaming_tick", time.Since(start).Seconds())
}

func (s *StreamingScheduler) evaluateSymbol(ctx context.Context, symbol string, signals []models.Signal, cutoff time.Time) (update models.StreamingUpdate, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("evaluate panic: %v", p)
		}
	}()

	verdict, alerts, err := s.eval(ctx, symbol, signals)
	if err != nil {
		return models.StreamingUpdate{}, err
	}

	var fresh []models.Signal
	for _, sig := range signals {
		if sig.Timestamp.After(cutoff) {
			fresh = append(fresh, sig)
		}
	}

	return models.StreamingUpdate{
		Timestamp:  time.Now(),
		Symbol:     symbol,
		NewSignals: fresh,
		Verdict:    verdict,
		Alerts:     alerts,
	}, nil
}

// publish fans the update out to subscribers without blocking the tick;
// a full subscriber simply misses this update.
func (s *StreamingScheduler) publish(update models.StreamingUpdate, onUpdate func(models.StreamingUpdate)) {
	if onUpdate != nil {
		onUpdate(update)
	}
	s.mu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- update:
		default:
			s.metrics.RecordError("subscriber_slow")
		}
	}
	s.mu.Unlock()
}
