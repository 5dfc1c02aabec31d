package analyzers

import (
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

// NewInfluencerNetwork scores coordinated influencer promotion. Reach
// scales the raw keyword score: the same phrasing matters more from an
// account with a large following.
func NewInfluencerNetwork() domsvc.Analyzer {
	a := newKeywordAnalyzer(models.SignalInfluencerNetwork, 20*time.Minute, map[string]float64{
		"huge announcement": 0.3,
		"you heard it here": 0.25,
		"next 100x":         0.35,
		"don't miss":        0.2,
		"alpha":             0.2,
		"calling it now":    0.25,
		"paid promo":        -0.3,
		"sponsored":         -0.2,
	})
	a.adjust = func(post *models.Post, strength float64) float64 {
		switch {
		case post.Followers >= 1_000_000:
			return strength * 1.5
		case post.Followers >= 100_000:
			return strength * 1.25
		case post.Followers < 1_000 && post.Followers > 0:
			return strength * 0.6
		}
		return strength
	}
	return a
}
