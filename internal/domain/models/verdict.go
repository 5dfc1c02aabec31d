package models

import "time"

// AggregationMethod selects how signals are combined into a verdict.
type AggregationMethod string

const (
	AggregateWeighted  AggregationMethod = "weighted"
	AggregateConsensus AggregationMethod = "consensus"
	AggregateHighest   AggregationMethod = "highest"
	AggregateCustom    AggregationMethod = "custom"
)

// VerdictMeta carries derived statistics about a verdict.
type VerdictMeta struct {
	SignalCount    int
	AvgTimeframe   time.Duration
	ConsensusLevel float64 // [0,1], share of signals in the largest direction group
	RiskScore      float64 // [0,1]
}

// AggregatedVerdict is the combined, scored conclusion across all
// contributing signals for one symbol at one point in time. Derived,
// never mutated in place; each aggregation produces a fresh value.
type AggregatedVerdict struct {
	Symbol             string
	OverallStrength    float64 // [-1,1]
	OverallConfidence  float64 // [0,1]
	Sentiment          Direction
	Signals            []Signal
	DominantType       SignalType
	ActiveCombinations []string
	Priority           Priority
	Meta               VerdictMeta
	Timestamp          time.Time
}

// CombinationRule boosts the aggregate when corroborating signal types
// co-occur. Static configuration, evaluated read-only per aggregation.
type CombinationRule struct {
	Name          string
	RequiredTypes []SignalType
	BonusWeight   float64
	Predicate     func(byType map[SignalType][]Signal) bool
}

// AlertLevel classifies alert severity.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Alert is a transient threshold notification; never persisted by the core.
type Alert struct {
	Level     AlertLevel
	Kind      string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// AlertThresholds configures the alert engine rules.
type AlertThresholds struct {
	CriticalStrength     float64
	CriticalConfidence   float64
	CombinationThreshold float64
}

// StreamingUpdate is emitted once per scheduler tick per active symbol.
type StreamingUpdate struct {
	Timestamp  time.Time
	Symbol     string
	NewSignals []Signal
	Verdict    *AggregatedVerdict
	Alerts     []Alert
}

// Sentiment is the base text classifier's output, consumed read-only
// for risk scoring and symbol extraction fallback.
type Sentiment struct {
	Score     float64 // [-1,1]
	Magnitude float64 // [0,1]
	Symbols   []string
}
