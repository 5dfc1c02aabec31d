package usecase

import (
	"sync"
	"time"

	"SocialPulse/internal/domain/models"
)

// DefaultHistoryCap bounds the number of retained signals per symbol.
const DefaultHistoryCap = 100

// HistoryStore keeps a bounded, TTL-filtered signal buffer per symbol.
// It is the one piece of state mutated from both the synchronous
// analyze path and the streaming scheduler, so every operation holds
// the store mutex: append, evict and truncate happen atomically.
type HistoryStore struct {
	mu      sync.Mutex
	buckets map[string][]models.Signal
	cap     int
	now     func() time.Time // injectable clock for tests
}

// NewHistoryStore creates a store with the given per-symbol capacity.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &HistoryStore{
		buckets: make(map[string][]models.Signal),
		cap:     capacity,
		now:     time.Now,
	}
}

// Append merges signals into the symbol's bucket, drops expired ones,
// then truncates to the most recent cap entries, oldest first. Buckets
// are created lazily and pruned once empty.
func (h *HistoryStore) Append(symbol string, signals []models.Signal) {
	if symbol == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	bucket := append(h.buckets[symbol], signals...)
	bucket = pruneExpired(bucket, h.now())
	if len(bucket) > h.cap {
		bucket = bucket[len(bucket)-h.cap:]
	}
	if len(bucket) == 0 {
		delete(h.buckets, symbol)
		return
	}
	h.buckets[symbol] = bucket
}

// ActiveFor returns the non-expired signals for one symbol.
func (h *HistoryStore) ActiveFor(symbol string) []models.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()

	active := pruneExpired(h.buckets[symbol], h.now())
	if len(active) == 0 {
		delete(h.buckets, symbol)
		return nil
	}
	h.buckets[symbol] = active
	out := make([]models.Signal, len(active))
	copy(out, active)
	return out
}

// AllActive returns every symbol with at least one active signal.
// Symbols whose buckets emptied out are pruned from the map.
func (h *HistoryStore) AllActive() map[string][]models.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	out := make(map[string][]models.Signal, len(h.buckets))
	for symbol, bucket := range h.buckets {
		active := pruneExpired(bucket, now)
		if len(active) == 0 {
			delete(h.buckets, symbol)
			continue
		}
		h.buckets[symbol] = active
		cp := make([]models.Signal, len(active))
		copy(cp, active)
		out[symbol] = cp
	}
	return out
}

// Symbols returns the tracked symbols, active or not.
func (h *HistoryStore) Symbols() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.buckets))
	for s := range h.buckets {
		out = append(out, s)
	}
	return out
}

// pruneExpired keeps insertion order while dropping expired signals.
func pruneExpired(signals []models.Signal, now time.Time) []models.Signal {
	out := signals[:0:len(signals)]
	for _, s := range signals {
		if !s.Expired(now) {
			out = append(out, s)
		}
	}
	return out
}
