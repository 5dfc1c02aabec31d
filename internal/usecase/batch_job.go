package usecase

import (
	"context"
	"fmt"
	"time"

	"SocialPulse/internal/domain/models"
	"SocialPulse/pkg/logger"
	"SocialPulse/pkg/queue"
)

// AnalyzeBatchJob consumes queued batch-analysis requests from the
// redis queue and runs them through the engine's batch pool.
type AnalyzeBatchJob struct {
	engine *SignalEngine
	logger *logger.Logger
}

// NewAnalyzeBatchJob creates the queue job handler.
func NewAnalyzeBatchJob(engine *SignalEngine, lgr *logger.Logger) *AnalyzeBatchJob {
	return &AnalyzeBatchJob{engine: engine, logger: lgr}
}

func (j *AnalyzeBatchJob) Name() string { return "analyze_batch" }
func (j *AnalyzeBatchJob) Type() string { return "analyze_batch" }

// Handle decodes the queued request and runs the batch. Verdicts land
// in history and the sinks as usual; the job itself has no reply path.
func (j *AnalyzeBatchJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.AnalyzeBatchRequest](payload)
	if err != nil {
		return fmt.Errorf("batch job payload: %w", err)
	}

	posts := make([]*models.Post, 0, len(req.Posts))
	for _, p := range req.Posts {
		posts = append(posts, &models.Post{
			ID:        p.ID,
			Platform:  p.Platform,
			Author:    p.Author,
			Text:      p.Text,
			Symbol:    p.Symbol,
			Followers: p.Followers,
			Timestamp: time.Now(),
		})
	}

	verdicts := j.engine.AnalyzeBatch(ctx, posts)
	produced := 0
	for _, v := range verdicts {
		if v != nil {
			produced++
		}
	}
	j.logger.Info("batch job done",
		logger.Int("posts", len(posts)),
		logger.Int("verdicts", produced))
	return nil
}
