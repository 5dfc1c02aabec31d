package kafka

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var (
	consumerMetricsOnce sync.Once
	consumerProcessed   *prometheus.CounterVec
	consumerFailed      *prometheus.CounterVec
	consumerDLQ         *prometheus.CounterVec
	consumerLag         *prometheus.GaugeVec
)

func initConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialpulse_kafka_consumer_messages_total",
			Help: "Messages processed per topic",
		}, []string{"topic"})
		consumerFailed = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialpulse_kafka_consumer_failures_total",
			Help: "Handler failures per topic (after retries)",
		}, []string{"topic"})
		consumerDLQ = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "socialpulse_kafka_consumer_dlq_total",
			Help: "Messages shipped to the dead letter topic",
		}, []string{"topic"})
		consumerLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socialpulse_kafka_consumer_lag",
			Help: "Reader lag per topic",
		}, []string{"topic"})
	})
}

// MessageHandler processes messages from one topic. A non-nil error
// triggers retries and finally the DLQ.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, data []byte) error
}

// Consumer runs one reader per registered topic and fans messages out
// to a shared worker pool.
type Consumer struct {
	cfg      *ConsumerConfig
	handlers map[string]MessageHandler
	hook     ConsumerHook

	readers []*kafka.Reader
	dlq     *kafka.Writer

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

type consumerMessage struct {
	topic string
	key   []byte
	value []byte
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		Workers:    4,
		BufferSize: 256,
		RetryMax:   3,
		BackoffMin: 100 * time.Millisecond,
		BackoffMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: no brokers configured")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka consumer: group id is required")
	}

	initConsumerMetrics()

	c := &Consumer{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
		hook:     NoopHook{},
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		}
	}
	return c, nil
}

// WithConsumerHook replaces the processing hook. Call before Start.
func (c *Consumer) WithConsumerHook(h ConsumerHook) *Consumer {
	if h != nil {
		c.hook = h
	}
	return c
}

// RegisterHandler subscribes a handler to its topic. Call before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("cannot register handler after start")
	}
	if _, dup := c.handlers[h.Topic()]; dup {
		return fmt.Errorf("handler already registered for topic %s", h.Topic())
	}
	c.handlers[h.Topic()] = h
	return nil
}

// Start launches readers and workers. It returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("consumer already started")
	}
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true

	messages := make(chan consumerMessage, c.cfg.BufferSize)

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(runCtx, messages)
	}

	for topic := range c.handlers {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:        c.cfg.Brokers,
			GroupID:        c.cfg.GroupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
		})
		c.readers = append(c.readers, reader)
		c.wg.Add(1)
		go c.readLoop(runCtx, reader, topic, messages)
	}

	go func() {
		c.wg.Wait()
		close(messages)
	}()
	return nil
}

func (c *Consumer) readLoop(ctx context.Context, reader *kafka.Reader, topic string, out chan<- consumerMessage) {
	defer c.wg.Done()
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(time.Second)
			continue
		}
		consumerLag.WithLabelValues(topic).Set(float64(reader.Lag()))
		select {
		case out <- consumerMessage{topic: topic, key: msg.Key, value: msg.Value}:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) worker(ctx context.Context, in <-chan consumerMessage) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg consumerMessage) {
	handler := c.handlers[msg.topic]
	c.hook.BeforeHandle(ctx, msg.topic, msg.key)

	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffWithJitter(attempt, c.cfg.BackoffMin, c.cfg.BackoffMax)):
			case <-ctx.Done():
				return
			}
		}
		if err = handler.Handle(ctx, msg.value); err == nil {
			consumerProcessed.WithLabelValues(msg.topic).Inc()
			c.hook.AfterHandle(ctx, msg.topic, msg.key, nil)
			return
		}
	}

	consumerFailed.WithLabelValues(msg.topic).Inc()
	c.hook.AfterHandle(ctx, msg.topic, msg.key, err)
	c.shipToDLQ(msg)
}

func (c *Consumer) shipToDLQ(msg consumerMessage) {
	if c.dlq == nil {
		return
	}
	// detached context so a shutdown doesn't lose the poison message
	dlqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.dlq.WriteMessages(dlqCtx, kafka.Message{
		Key:   msg.key,
		Value: msg.value,
		Headers: []kafka.Header{
			{Key: "origin-topic", Value: []byte(msg.topic)},
		},
	}); err == nil {
		consumerDLQ.WithLabelValues(msg.topic).Inc()
	}
}

// Stop cancels readers and waits for in-flight work.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.cancel()
	c.started = false
	readers := c.readers
	c.readers = nil
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, r := range readers {
		_ = r.Close()
	}
	if c.dlq != nil {
		_ = c.dlq.Close()
	}
	return nil
}

func backoffWithJitter(attempt int, min, max time.Duration) time.Duration {
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d/2 + jitter
}
