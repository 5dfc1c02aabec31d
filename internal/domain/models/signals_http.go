package models

// Requests for the engine HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	ID        string `json:"id"`
	Platform  string `json:"platform" default:"x" validate:"oneof=x reddit telegram discord"`
	Author    string `json:"author"`
	Text      string `json:"text" validate:"required,min=1,max=4096"`
	Symbol    string `json:"symbol"`
	Followers int    `json:"followers" validate:"gte=0"`
}

type AnalyzeBatchRequest struct {
	Posts []AnalyzeRequest `json:"posts" validate:"required,min=1,max=500,dive"`
}

type SignalsQueryRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=100"`
}

type AnalyzerConfigRequest struct {
	Type          string   `param:"type" json:"type" validate:"required"`
	Enabled       *bool    `json:"enabled"`
	Sensitivity   *float64 `json:"sensitivity" validate:"omitempty,gte=0,lte=1"`
	MinConfidence *float64 `json:"min_confidence" validate:"omitempty,gte=0,lte=1"`
}

type StreamingRequest struct {
	IntervalMs int `json:"interval_ms" default:"5000" validate:"gte=100,lte=3600000"`
}
