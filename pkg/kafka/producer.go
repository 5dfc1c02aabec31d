package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var (
	producerMetricsOnce sync.Once
	producerPublished   *prometheus.CounterVec
	producerErrors      *prometheus.CounterVec
	producerLatency     *prometheus.HistogramVec
)

func initProducerMetrics() {
	producerMetricsOnce.Do(func() {
		producerPublished = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialpulse_kafka_producer_messages_total",
			Help: "Messages published per topic",
		}, []string{"topic"})
		producerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialpulse_kafka_producer_errors_total",
			Help: "Publish errors per topic",
		}, []string{"topic"})
		producerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialpulse_kafka_producer_publish_seconds",
			Help:    "Publish latency per topic",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})
	})
}

// Producer is a thin JSON-publishing wrapper over kafka-go's Writer.
// One producer serves all topics; messages carry the topic per call.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		MaxAttempts:  3,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: no brokers configured")
	}

	initProducerMetrics()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxAttempts,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Async:        cfg.Async,
		Compression:  compressionCodec(cfg.Compression),
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer}, nil
}

// Publish JSON-encodes value and writes it to topic. The key selects
// the partition, keeping per-key ordering.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		producerErrors.WithLabelValues(topic).Inc()
		return fmt.Errorf("marshal message: %w", err)
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: payload,
	})
	producerLatency.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		producerErrors.WithLabelValues(topic).Inc()
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	producerPublished.WithLabelValues(topic).Inc()
	return nil
}

// PublishBatch writes several values to one topic in a single call.
func (p *Producer) PublishBatch(ctx context.Context, topic string, key []byte, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(values))
	for _, v := range values {
		payload, err := json.Marshal(v)
		if err != nil {
			producerErrors.WithLabelValues(topic).Inc()
			return fmt.Errorf("marshal batch message: %w", err)
		}
		msgs = append(msgs, kafka.Message{Topic: topic, Key: key, Value: payload})
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, msgs...)
	producerLatency.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		producerErrors.WithLabelValues(topic).Inc()
		return fmt.Errorf("write batch to %s: %w", topic, err)
	}
	producerPublished.WithLabelValues(topic).Add(float64(len(msgs)))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
