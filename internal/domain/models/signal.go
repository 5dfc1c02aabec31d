package models

import "time"

// SignalType identifies the analyzer that produced a signal.
type SignalType string

const (
	SignalSmartMoney        SignalType = "smart_money"
	SignalInfluencerNetwork SignalType = "influencer_network"
	SignalVolumeHype        SignalType = "volume_hype"
	SignalUrgency           SignalType = "urgency"
	SignalFearGreed         SignalType = "fear_greed"
	SignalWhaleAlert        SignalType = "whale_alert"
	SignalPumpPattern       SignalType = "pump_pattern"
	SignalRugPull           SignalType = "rug_pull"
	SignalInsiderLeak       SignalType = "insider_leak"
	SignalTechnicalBreakout SignalType = "technical_breakout"
	SignalNewsCatalyst      SignalType = "news_catalyst"
	SignalCommunityMomentum SignalType = "community_momentum"
	SignalContrarian        SignalType = "contrarian"
	SignalBotActivity       SignalType = "bot_activity"
	SignalCrossPlatform     SignalType = "cross_platform"
	SignalDevActivity       SignalType = "dev_activity"
	SignalLiquidityShift    SignalType = "liquidity_shift"
	SignalNarrativeShift    SignalType = "narrative_shift"
	SignalRegulatoryRisk    SignalType = "regulatory_risk"
	SignalMemeVelocity      SignalType = "meme_velocity"
)

// Direction is the directional call of a signal or verdict.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Priority is the discrete urgency tier derived from strength and confidence.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Signal is one analyzer's scored, time-bounded observation about a symbol.
// Strength and Confidence are clamped to [-1,1] and [0,1] before a signal
// leaves any component. Immutable once produced.
type Signal struct {
	ID         string
	Type       SignalType
	Strength   float64 // [-1, 1]
	Confidence float64 // [0, 1]
	Direction  Direction
	Timeframe  time.Duration // validity window; expired when now-Timestamp >= Timeframe
	Timestamp  time.Time
	Metadata   map[string]interface{}
}

// Symbol returns the entity carried in metadata, or "" when absent.
func (s *Signal) Symbol() string {
	if s.Metadata == nil {
		return ""
	}
	if v, ok := s.Metadata["symbol"].(string); ok {
		return v
	}
	return ""
}

// Expired reports whether the signal's validity window has passed at t.
func (s *Signal) Expired(t time.Time) bool {
	return t.Sub(s.Timestamp) >= s.Timeframe
}

// Clamp returns a copy with strength and confidence forced into range.
func (s Signal) Clamp() Signal {
	s.Strength = ClampStrength(s.Strength)
	s.Confidence = ClampConfidence(s.Confidence)
	return s
}

// ClampStrength forces v into [-1, 1].
func ClampStrength(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// ClampConfidence forces v into [0, 1].
func ClampConfidence(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
