package api

import (
	"errors"
	"time"

	"SocialPulse/internal/domain/models"
	domrepo "SocialPulse/internal/domain/repository"
	domsvc "SocialPulse/internal/domain/service"
	"SocialPulse/internal/usecase"
	xhttp "SocialPulse/pkg/http"
	xlogger "SocialPulse/pkg/logger"
	"SocialPulse/pkg/queue"
	"SocialPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// EngineEchoHandler exposes the signal engine over HTTP.
type EngineEchoHandler struct {
	logger   *xlogger.Logger
	engine   *usecase.SignalEngine
	queue    queue.QueueService       // async batch jobs; may be nil
	recorder domrepo.ActivityRecorder // verdict history reads; may be nil
	stream   *StreamHandler
}

// NewEngineEchoHandler creates the handler set.
func NewEngineEchoHandler(logger *xlogger.Logger, engine *usecase.SignalEngine, q queue.QueueService, recorder domrepo.ActivityRecorder) *EngineEchoHandler {
	return &EngineEchoHandler{
		logger:   logger,
		engine:   engine,
		queue:    q,
		recorder: recorder,
		stream:   NewStreamHandler(logger, engine),
	}
}

func (h *EngineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze/batch", h.AnalyzeBatch)
	g.POST("/analyze/batch/async", h.AnalyzeBatchAsync)
	g.GET("/signals/:symbol", h.Signals)
	g.GET("/verdicts/:symbol", h.Verdicts)
	g.GET("/analyzers", h.Analyzers)
	g.PUT("/analyzers/:type/config", h.UpdateAnalyzerConfig)
	g.POST("/streaming/start", h.StartStreaming)
	g.POST("/streaming/stop", h.StopStreaming)
	e.GET("/ws/stream", h.stream.Serve)
}

func (h *EngineEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	verdict, err := h.engine.AnalyzeText(c.Request().Context(), reqToPost(req))
	if err != nil {
		h.logger.Error("analyze failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if verdict == nil {
		// nothing cleared the filters; not an error
		return xhttp.SuccessResponse(c, map[string]interface{}{"verdict": nil})
	}
	return xhttp.SuccessResponse(c, verdict)
}

func (h *EngineEchoHandler) AnalyzeBatch(c echo.Context) error {
	req := &models.AnalyzeBatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	posts := make([]*models.Post, 0, len(req.Posts))
	for i := range req.Posts {
		posts = append(posts, reqToPost(&req.Posts[i]))
	}
	verdicts := h.engine.AnalyzeBatch(c.Request().Context(), posts)
	return xhttp.SuccessResponse(c, verdicts)
}

// AnalyzeBatchAsync enqueues the batch on the redis queue and returns
// immediately. Results land in history and the sinks.
func (h *EngineEchoHandler) AnalyzeBatchAsync(c echo.Context) error {
	if h.queue == nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("batch queue not configured"))
	}
	req := &models.AnalyzeBatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.queue.PublishMessage(c.Request().Context(), "analyze_batch", req); err != nil {
		h.logger.Error("batch enqueue failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"queued": len(req.Posts)})
}

func (h *EngineEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals := h.engine.History().ActiveFor(req.Symbol)
	if len(signals) > req.Limit {
		signals = signals[len(signals)-req.Limit:]
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":  req.Symbol,
		"signals": signals,
	})
}

// Verdicts reads persisted verdicts back from the activity store.
func (h *EngineEchoHandler) Verdicts(c echo.Context) error {
	if h.recorder == nil {
		return xhttp.NotFoundResponse(c, "verdict history not configured")
	}
	symbol := c.Param("symbol")
	now := time.Now()
	from := util.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(c.QueryParam("to"), now)
	limit := util.ParseIntDefault(c.QueryParam("limit"), 100)

	verdicts, err := h.recorder.QueryVerdicts(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("verdict query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, verdicts, int64(len(verdicts)))
}

func (h *EngineEchoHandler) Analyzers(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"enabled": h.engine.Registry().EnabledTypes(),
		"config":  h.engine.Registry().Config(),
	})
}

func (h *EngineEchoHandler) UpdateAnalyzerConfig(c echo.Context) error {
	req := &models.AnalyzerConfigRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.engine.Registry().UpdateConfig(models.SignalType(req.Type), domsvc.AnalyzerConfigPatch{
		Enabled:       req.Enabled,
		Sensitivity:   req.Sensitivity,
		MinConfidence: req.MinConfidence,
	})
	if errors.Is(err, usecase.ErrUnknownAnalyzer) {
		return xhttp.NotFoundResponse(c, "analyzer: "+req.Type)
	}
	return xhttp.SuccessResponse(c, h.engine.Registry().Config()[models.SignalType(req.Type)])
}

func (h *EngineEchoHandler) StartStreaming(c echo.Context) error {
	req := &models.StreamingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.engine.StartStreaming(time.Duration(req.IntervalMs) * time.Millisecond)
	return xhttp.SuccessResponse(c, map[string]interface{}{"streaming": true})
}

func (h *EngineEchoHandler) StopStreaming(c echo.Context) error {
	h.engine.StopStreaming()
	return xhttp.SuccessResponse(c, map[string]interface{}{"streaming": false})
}

func reqToPost(req *models.AnalyzeRequest) *models.Post {
	return &models.Post{
		ID:        req.ID,
		Platform:  req.Platform,
		Author:    req.Author,
		Text:      req.Text,
		Symbol:    req.Symbol,
		Followers: req.Followers,
		Timestamp: time.Now(),
	}
}
