package analyzers

import (
	"context"
	"strings"
	"sync"
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"

	"github.com/google/uuid"
)

// keywordAnalyzer is the shared scaffolding for the built-in heuristic
// analyzers: a weighted keyword table scored against lowercased text.
// Positive table weights read bullish, negative read bearish. Concrete
// analyzers supply the table and an optional post-level adjustment.
type keywordAnalyzer struct {
	typ       models.SignalType
	timeframe time.Duration
	table     map[string]float64
	adjust    func(post *models.Post, strength float64) float64

	mu  sync.RWMutex
	cfg domsvc.AnalyzerConfig
}

func newKeywordAnalyzer(typ models.SignalType, timeframe time.Duration, table map[string]float64) *keywordAnalyzer {
	return &keywordAnalyzer{
		typ:       typ,
		timeframe: timeframe,
		table:     table,
		cfg:       domsvc.AnalyzerConfig{Enabled: true, Sensitivity: 0.5, MinConfidence: 0.3},
	}
}

func (a *keywordAnalyzer) Type() models.SignalType { return a.typ }

func (a *keywordAnalyzer) UpdateConfig(cfg domsvc.AnalyzerConfig) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
}

func (a *keywordAnalyzer) config() domsvc.AnalyzerConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Detect returns at most one signal, or nil when nothing matched.
func (a *keywordAnalyzer) Detect(ctx context.Context, post *models.Post) (*models.Signal, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	cfg := a.config()
	text := strings.ToLower(post.Text)

	var score float64
	hits := 0
	for kw, w := range a.table {
		if strings.Contains(text, kw) {
			score += w
			hits++
		}
	}
	if hits == 0 {
		return nil, nil
	}

	// sensitivity widens or narrows the strength response
	strength := models.ClampStrength(score * (0.5 + cfg.Sensitivity))
	if a.adjust != nil {
		strength = models.ClampStrength(a.adjust(post, strength))
	}
	confidence := models.ClampConfidence(0.3 + 0.15*float64(hits))

	direction := models.DirectionNeutral
	if strength > 0.1 {
		direction = models.DirectionBullish
	} else if strength < -0.1 {
		direction = models.DirectionBearish
	}

	return &models.Signal{
		ID:         uuid.NewString(),
		Type:       a.typ,
		Strength:   strength,
		Confidence: confidence,
		Direction:  direction,
		Timeframe:  a.timeframe,
		Timestamp:  post.Timestamp,
		Metadata: map[string]interface{}{
			"post_id":  post.ID,
			"platform": post.Platform,
			"hits":     hits,
		},
	}, nil
}

// DetectBatch applies Detect sequentially; concurrency lives in the
// registry, not here.
func (a *keywordAnalyzer) DetectBatch(ctx context.Context, posts []*models.Post) ([]*models.Signal, error) {
	var out []*models.Signal
	for _, p := range posts {
		sig, err := a.Detect(ctx, p)
		if err != nil {
			return out, err
		}
		if sig != nil {
			out = append(out, sig)
		}
	}
	return out, nil
}
