package repository

import (
	"context"
	"fmt"

	"SocialPulse/internal/domain/models"
	pkgkafka "SocialPulse/pkg/kafka"
)

// KafkaOrderPublisher forwards verdicts to the downstream trading
// pipeline topic. Partitioned by symbol so one symbol's verdicts stay
// ordered.
type KafkaOrderPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaOrderPublisher creates the publisher for a topic.
func NewKafkaOrderPublisher(producer *pkgkafka.Producer, topic string) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{producer: producer, topic: topic}
}

// verdictEvent is the wire shape sent to the trading pipeline.
type verdictEvent struct {
	Symbol             string   `json:"symbol"`
	Strength           float64  `json:"strength"`
	Confidence         float64  `json:"confidence"`
	Sentiment          string   `json:"sentiment"`
	Priority           string   `json:"priority"`
	DominantType       string   `json:"dominant_type"`
	ActiveCombinations []string `json:"active_combinations,omitempty"`
	SignalCount        int      `json:"signal_count"`
	ConsensusLevel     float64  `json:"consensus_level"`
	RiskScore          float64  `json:"risk_score"`
	Timestamp          int64    `json:"timestamp_ms"`
}

// PublishVerdict sends one verdict. Callers treat errors as best-effort.
func (p *KafkaOrderPublisher) PublishVerdict(ctx context.Context, v *models.AggregatedVerdict) error {
	if v == nil {
		return fmt.Errorf("verdict is nil")
	}
	ev := verdictEvent{
		Symbol:             v.Symbol,
		Strength:           v.OverallStrength,
		Confidence:         v.OverallConfidence,
		Sentiment:          string(v.Sentiment),
		Priority:           string(v.Priority),
		DominantType:       string(v.DominantType),
		ActiveCombinations: v.ActiveCombinations,
		SignalCount:        v.Meta.SignalCount,
		ConsensusLevel:     v.Meta.ConsensusLevel,
		RiskScore:          v.Meta.RiskScore,
		Timestamp:          v.Timestamp.UnixMilli(),
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(v.Symbol), ev); err != nil {
		return fmt.Errorf("publish verdict: %w", err)
	}
	return nil
}

// Close releases the underlying producer.
func (p *KafkaOrderPublisher) Close() error {
	return p.producer.Close()
}
