package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"SocialPulse/internal/domain/models"
)

// ClickHouseRecorder persists verdicts and alerts for offline analysis.
// Fire-and-forget from the engine's point of view: callers log and drop
// errors.
type ClickHouseRecorder struct {
	db       *sql.DB
	database string
}

// NewClickHouseRecorder creates a recorder over an open connection pool.
func NewClickHouseRecorder(db *sql.DB, database string) *ClickHouseRecorder {
	return &ClickHouseRecorder{db: db, database: database}
}

// Init ensures the activity tables exist. Idempotent.
func (r *ClickHouseRecorder) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", r.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.verdicts (
			symbol String,
			ts DateTime64(3),
			strength Float64,
			confidence Float64,
			sentiment String,
			priority String,
			dominant_type String,
			combinations Array(String),
			signal_count UInt32,
			consensus Float64,
			risk Float64
		) ENGINE=MergeTree ORDER BY (symbol, ts)`, r.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.alerts (
			symbol String,
			ts DateTime64(3),
			level String,
			kind String,
			message String,
			data String
		) ENGINE=MergeTree ORDER BY (symbol, ts)`, r.database),
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("recorder init: %w", err)
		}
	}
	return nil
}

// RecordVerdict inserts one verdict row.
func (r *ClickHouseRecorder) RecordVerdict(ctx context.Context, v *models.AggregatedVerdict) error {
	if v == nil {
		return fmt.Errorf("verdict is nil")
	}
	query := fmt.Sprintf(`INSERT INTO %s.verdicts
		(symbol, ts, strength, confidence, sentiment, priority, dominant_type, combinations, signal_count, consensus, risk)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.database)
	_, err := r.db.ExecContext(ctx, query,
		v.Symbol, v.Timestamp, v.OverallStrength, v.OverallConfidence,
		string(v.Sentiment), string(v.Priority), string(v.DominantType),
		v.ActiveCombinations, uint32(v.Meta.SignalCount),
		v.Meta.ConsensusLevel, v.Meta.RiskScore)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

// RecordAlerts inserts one row per alert.
func (r *ClickHouseRecorder) RecordAlerts(ctx context.Context, symbol string, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s.alerts (symbol, ts, level, kind, message, data) VALUES (?, ?, ?, ?, ?, ?)`, r.database)
	for _, a := range alerts {
		data, _ := json.Marshal(a.Data)
		if _, err := r.db.ExecContext(ctx, query,
			symbol, a.Timestamp, string(a.Level), a.Kind, a.Message, string(data)); err != nil {
			return fmt.Errorf("record alert: %w", err)
		}
	}
	return nil
}

// QueryVerdicts returns stored verdicts for a symbol, newest first.
func (r *ClickHouseRecorder) QueryVerdicts(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AggregatedVerdict, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT symbol, ts, strength, confidence, sentiment, priority, dominant_type, signal_count, consensus, risk
		FROM %s.verdicts WHERE symbol = ? AND ts BETWEEN ? AND ? ORDER BY ts DESC LIMIT ?`, r.database)
	rows, err := r.db.QueryContext(ctx, query, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []*models.AggregatedVerdict
	for rows.Next() {
		v := &models.AggregatedVerdict{}
		var sentiment, priority, dominant string
		var count uint32
		if err := rows.Scan(&v.Symbol, &v.Timestamp, &v.OverallStrength, &v.OverallConfidence,
			&sentiment, &priority, &dominant, &count, &v.Meta.ConsensusLevel, &v.Meta.RiskScore); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.Sentiment = models.Direction(sentiment)
		v.Priority = models.Priority(priority)
		v.DominantType = models.SignalType(dominant)
		v.Meta.SignalCount = int(count)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Health pings the pool.
func (r *ClickHouseRecorder) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close is a no-op; the shared pool is owned by the clickhouse client.
func (r *ClickHouseRecorder) Close() error { return nil }
