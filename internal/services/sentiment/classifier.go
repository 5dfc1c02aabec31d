package sentiment

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"SocialPulse/internal/domain/models"
	"SocialPulse/pkg/cache"
	"SocialPulse/pkg/config"
	xhttp "SocialPulse/pkg/http"
	"SocialPulse/pkg/logger"
)

// HTTPClassifier calls the external base-sentiment service. Results are
// cached by text hash because the firehose repeats the same posts
// across platforms.
type HTTPClassifier struct {
	baseURL string
	client  *xhttp.Client
	cache   cache.Service
	ttl     time.Duration
	logger  *logger.Logger
}

// NewHTTPClassifier builds the classifier from config. The cache may be
// nil, in which case every call hits the service.
func NewHTTPClassifier(cfg *config.Config, c cache.Service, lgr *logger.Logger) *HTTPClassifier {
	timeout := cfg.Sentiment.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ttl := cfg.Sentiment.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HTTPClassifier{
		baseURL: cfg.Sentiment.ServiceURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:   c,
		ttl:     ttl,
		logger:  lgr,
	}
}

type classifyReq struct {
	Text string `json:"text"`
}

type classifyResp struct {
	Score     float64  `json:"score"`
	Magnitude float64  `json:"magnitude"`
	Entities  []string `json:"entities"`
}

// Classify returns the base sentiment for a text.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	key := "sentiment:" + textKey(text)
	if c.cache != nil {
		var cached models.Sentiment
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	var resp classifyResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.baseURL + "/classify",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    classifyReq{Text: text},
	}, &resp)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("post classify: %w", err)
	}

	out := models.Sentiment{
		Score:     models.ClampStrength(resp.Score),
		Magnitude: models.ClampConfidence(resp.Magnitude),
		Symbols:   resp.Entities,
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, out, c.ttl); err != nil {
			c.logger.Debug("sentiment cache set failed", logger.Error(err))
		}
	}
	return out, nil
}

func textKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:8])
}
