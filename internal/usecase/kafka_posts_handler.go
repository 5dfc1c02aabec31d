package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SocialPulse/internal/domain/models"
	domrepo "SocialPulse/internal/domain/repository"
)

// PostSink is the downstream the kafka handler feeds, usually the
// ingest pipeline in front of the engine.
type PostSink interface {
	Process(ctx context.Context, post *models.Post) error
}

// KafkaPostsHandler decodes social posts from the ingest topic and
// hands them to the pipeline.
type KafkaPostsHandler struct {
	topic   string
	sink    PostSink
	metrics domrepo.Metrics
}

// NewKafkaPostsHandler creates a handler bound to one topic.
func NewKafkaPostsHandler(topic string, sink PostSink, metrics domrepo.Metrics) *KafkaPostsHandler {
	return &KafkaPostsHandler{topic: topic, sink: sink, metrics: metrics}
}

// Topic returns the subscribed topic name.
func (h *KafkaPostsHandler) Topic() string { return h.topic }

// Handle decodes one message and forwards it. Decode errors are
// permanent and reported so the consumer can DLQ instead of retrying.
func (h *KafkaPostsHandler) Handle(ctx context.Context, data []byte) error {
	var post models.Post
	if err := json.Unmarshal(data, &post); err != nil {
		h.metrics.RecordError("post_decode")
		return fmt.Errorf("decode post: %w", err)
	}
	if post.Timestamp.IsZero() {
		post.Timestamp = time.Now()
	}

	if err := h.sink.Process(ctx, &post); err != nil {
		h.metrics.RecordError("post_process")
		return fmt.Errorf("process post: %w", err)
	}
	return nil
}
