package usecase

import (
	"fmt"
	"testing"
	"time"

	"SocialPulse/internal/domain/models"
)

func histSig(id string, ts time.Time, ttl time.Duration) models.Signal {
	return models.Signal{
		ID:        id,
		Type:      models.SignalVolumeHype,
		Strength:  0.5,
		Timeframe: ttl,
		Timestamp: ts,
	}
}

func TestHistoryTTLBoundary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 10 * time.Minute

	h := NewHistoryStore(0)
	current := t0
	h.now = func() time.Time { return current }

	h.Append("PEPE", []models.Signal{histSig("a", t0, ttl)})

	// one second before expiry the signal is still active
	current = t0.Add(ttl - time.Second)
	if got := h.ActiveFor("PEPE"); len(got) != 1 {
		t.Fatalf("expected signal active before TTL, got %d", len(got))
	}

	// at exactly TTL the window has passed
	current = t0.Add(ttl)
	if got := h.ActiveFor("PEPE"); got != nil {
		t.Fatalf("expected signal expired at TTL, got %d", len(got))
	}

	// the emptied bucket is pruned entirely
	if syms := h.Symbols(); len(syms) != 0 {
		t.Fatalf("expected bucket pruned, still tracking %v", syms)
	}
}

func TestHistoryCapacityKeepsMostRecent(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h := NewHistoryStore(0) // default cap 100
	h.now = func() time.Time { return t0 }

	batch := make([]models.Signal, 0, 150)
	for i := 0; i < 150; i++ {
		batch = append(batch, histSig(fmt.Sprintf("s%03d", i), t0.Add(time.Duration(i)*time.Second), time.Hour))
	}
	h.Append("DOGE", batch)

	got := h.ActiveFor("DOGE")
	if len(got) != DefaultHistoryCap {
		t.Fatalf("expected %d retained, got %d", DefaultHistoryCap, len(got))
	}
	// oldest 50 dropped, order preserved oldest-first
	if got[0].ID != "s050" {
		t.Fatalf("expected oldest retained s050, got %s", got[0].ID)
	}
	if got[len(got)-1].ID != "s149" {
		t.Fatalf("expected newest retained s149, got %s", got[len(got)-1].ID)
	}
}

func TestHistoryEvictsBeforeTruncating(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h := NewHistoryStore(3)
	current := t0
	h.now = func() time.Time { return current }

	h.Append("X", []models.Signal{
		histSig("old1", t0.Add(-2*time.Hour), time.Hour), // already expired
		histSig("old2", t0.Add(-2*time.Hour), time.Hour),
		histSig("live1", t0, time.Hour),
	})
	h.Append("X", []models.Signal{
		histSig("live2", t0, time.Hour),
		histSig("live3", t0, time.Hour),
	})

	got := h.ActiveFor("X")
	if len(got) != 3 {
		t.Fatalf("expected 3 live signals, got %d", len(got))
	}
	if got[0].ID != "live1" {
		t.Fatalf("expired entries must not consume capacity, first is %s", got[0].ID)
	}
}

func TestHistoryAllActivePerSymbolIsolation(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h := NewHistoryStore(0)
	current := t0
	h.now = func() time.Time { return current }

	h.Append("LIVE", []models.Signal{histSig("a", t0, time.Hour)})
	h.Append("DEAD", []models.Signal{histSig("b", t0, time.Minute)})

	current = t0.Add(10 * time.Minute)
	active := h.AllActive()
	if len(active) != 1 {
		t.Fatalf("expected one active symbol, got %d", len(active))
	}
	if _, ok := active["LIVE"]; !ok {
		t.Fatalf("expected LIVE to remain, got %v", active)
	}
}

func TestHistoryReturnsCopies(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewHistoryStore(0)
	h.now = func() time.Time { return t0 }

	h.Append("C", []models.Signal{histSig("a", t0, time.Hour)})
	first := h.ActiveFor("C")
	first[0].ID = "mutated"

	second := h.ActiveFor("C")
	if second[0].ID != "a" {
		t.Fatalf("caller mutation leaked into the store: %s", second[0].ID)
	}
}

func TestHistoryEmptySymbolIgnored(t *testing.T) {
	h := NewHistoryStore(0)
	h.Append("", []models.Signal{histSig("a", time.Now(), time.Hour)})
	if syms := h.Symbols(); len(syms) != 0 {
		t.Fatalf("empty symbol should be ignored, got %v", syms)
	}
}
