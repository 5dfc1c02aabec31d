package service

import (
	"context"

	"SocialPulse/internal/domain/models"
)

// AnalyzerConfig is the per-type tuning owned by the registry. It is
// only mutated through an explicit update call, never implicitly.
type AnalyzerConfig struct {
	Enabled       bool
	Sensitivity   float64 // [0,1]
	MinConfidence float64 // [0,1]
}

// AnalyzerConfigPatch is a partial config update; nil fields are untouched.
type AnalyzerConfigPatch struct {
	Enabled       *bool
	Sensitivity   *float64
	MinConfidence *float64
}

// Apply merges the patch into cfg and returns the result.
func (p AnalyzerConfigPatch) Apply(cfg AnalyzerConfig) AnalyzerConfig {
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	if p.Sensitivity != nil {
		cfg.Sensitivity = *p.Sensitivity
	}
	if p.MinConfidence != nil {
		cfg.MinConfidence = *p.MinConfidence
	}
	return cfg
}

// Analyzer produces at most one signal per post. Implementations own
// their text heuristics; the engine only depends on this contract.
type Analyzer interface {
	Type() models.SignalType
	Detect(ctx context.Context, post *models.Post) (*models.Signal, error)
	DetectBatch(ctx context.Context, posts []*models.Post) ([]*models.Signal, error)
	UpdateConfig(cfg AnalyzerConfig)
}

// SentimentProvider is the external base-text classifier, used for risk
// scoring and symbol extraction fallback.
type SentimentProvider interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
}
