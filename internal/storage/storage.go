package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/forecast"
)

// DefaultCategories is the watch list for users who never configured one.
//
//nolint:gochecknoglobals // fixed default
var DefaultCategories = []string{"science", "crypto", "politics"}

// PredictionRow is one stored outcome prediction.
type PredictionRow struct {
	ID                int64
	CreatedAt         time.Time
	ConditionID       string
	Question          string
	Slug              string
	Outcome           string
	BotProbability    float64
	MarketProbability float64
	EVPerDollar       float64
	KellyFraction     float64
	Recommendation    string
	Resolved          bool
	ActualOutcome     string
	BrierComponent    *float64
	RequestedBy       string
}

// Storage persists forecasts and resolution outcomes.
type Storage interface {
	// SaveForecast stores one row per outcome of a completed analysis.
	SaveForecast(ctx context.Context, result *forecast.Result, requestedBy string) error
	// UnresolvedMarketIDs returns the distinct condition IDs with
	// unresolved predictions.
	UnresolvedMarketIDs(ctx context.Context) ([]string, error)
	// UnresolvedByMarket returns all unresolved predictions for one market.
	UnresolvedByMarket(ctx context.Context, conditionID string) ([]PredictionRow, error)
	// MarkResolved sets the actual outcome and Brier component on one row.
	MarkResolved(ctx context.Context, id int64, actualOutcome string, brier float64) error
	// ResolvedRows returns resolved predictions, newest first. Empty
	// requestedBy means all requesters.
	ResolvedRows(ctx context.Context, requestedBy string) ([]PredictionRow, error)
	// RecentPredictions returns a requester's latest predictions.
	RecentPredictions(ctx context.Context, requestedBy string, limit int) ([]PredictionRow, error)
	// UserCategories returns a user's watch categories, falling back to
	// DefaultCategories for unknown users.
	UserCategories(ctx context.Context, userID int64) ([]string, error)
	// SetUserCategories replaces a user's watch categories.
	SetUserCategories(ctx context.Context, userID int64, categories []string) error
	Close() error
}

// SQLStorage implements Storage on database/sql. The same statement set
// serves SQLite and Postgres; rebind rewrites placeholders for the
// active driver.
type SQLStorage struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

func (s *SQLStorage) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SaveForecast implements Storage.
func (s *SQLStorage) SaveForecast(ctx context.Context, result *forecast.Result, requestedBy string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := s.rebind(`INSERT INTO predictions
		(condition_id, market_question, market_slug, outcome,
		 bot_probability, market_probability, ev_per_dollar,
		 kelly_fraction, recommendation, reasoning_text,
		 prompt_version, news_article_count, requested_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, o := range result.Outcomes {
		if _, err := tx.ExecContext(ctx, query,
			result.ConditionID,
			result.Question,
			result.Slug,
			o.Outcome,
			o.BotProbability,
			o.MarketProbability,
			o.EVPerDollar,
			o.KellyFraction,
			string(o.Recommendation),
			result.Reasoning,
			result.PromptVersion,
			result.ArticleCount,
			requestedBy,
		); err != nil {
			return fmt.Errorf("insert prediction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	ForecastsSavedTotal.Inc()
	s.logger.Debug("forecast-stored",
		zap.String("condition-id", result.ConditionID),
		zap.Int("outcomes", len(result.Outcomes)))

	return nil
}

// UnresolvedMarketIDs implements Storage.
func (s *SQLStorage) UnresolvedMarketIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT condition_id FROM predictions WHERE resolved = 0`)
	if err != nil {
		return nil, fmt.Errorf("query unresolved markets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan condition id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const predictionColumns = `id, created_at, condition_id, market_question, market_slug,
	outcome, bot_probability, market_probability, ev_per_dollar,
	kelly_fraction, recommendation, resolved, actual_outcome,
	brier_component, requested_by`

func scanPredictions(rows *sql.Rows) ([]PredictionRow, error) {
	var out []PredictionRow
	for rows.Next() {
		var (
			p         PredictionRow
			createdAt string
			resolved  int
			actual    sql.NullString
			brier     sql.NullFloat64
			requested sql.NullString
		)
		if err := rows.Scan(&p.ID, &createdAt, &p.ConditionID, &p.Question, &p.Slug,
			&p.Outcome, &p.BotProbability, &p.MarketProbability, &p.EVPerDollar,
			&p.KellyFraction, &p.Recommendation, &resolved, &actual,
			&brier, &requested); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if t, err := parseTimestamp(createdAt); err == nil {
			p.CreatedAt = t
		}
		p.Resolved = resolved != 0
		p.ActualOutcome = actual.String
		if brier.Valid {
			v := brier.Float64
			p.BrierComponent = &v
		}
		p.RequestedBy = requested.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// UnresolvedByMarket implements Storage.
func (s *SQLStorage) UnresolvedByMarket(ctx context.Context, conditionID string) ([]PredictionRow, error) {
	query := s.rebind(`SELECT ` + predictionColumns + `
		FROM predictions WHERE condition_id = ? AND resolved = 0`)

	rows, err := s.db.QueryContext(ctx, query, conditionID)
	if err != nil {
		return nil, fmt.Errorf("query unresolved predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// MarkResolved implements Storage.
func (s *SQLStorage) MarkResolved(ctx context.Context, id int64, actualOutcome string, brier float64) error {
	query := s.rebind(`UPDATE predictions
		SET resolved = 1, actual_outcome = ?, resolution_date = ?, brier_component = ?
		WHERE id = ?`)

	if _, err := s.db.ExecContext(ctx, query,
		actualOutcome, time.Now().UTC().Format(time.RFC3339), brier, id); err != nil {
		return fmt.Errorf("mark prediction resolved: %w", err)
	}

	PredictionsResolvedTotal.Inc()
	return nil
}

// ResolvedRows implements Storage.
func (s *SQLStorage) ResolvedRows(ctx context.Context, requestedBy string) ([]PredictionRow, error) {
	query := `SELECT ` + predictionColumns + `
		FROM predictions WHERE resolved = 1 AND brier_component IS NOT NULL`
	args := []any{}
	if requestedBy != "" {
		query += ` AND requested_by = ?`
		args = append(args, requestedBy)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query resolved predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// RecentPredictions implements Storage.
func (s *SQLStorage) RecentPredictions(ctx context.Context, requestedBy string, limit int) ([]PredictionRow, error) {
	query := s.rebind(`SELECT ` + predictionColumns + `
		FROM predictions WHERE requested_by = ?
		ORDER BY created_at DESC LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, requestedBy, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// UserCategories implements Storage.
func (s *SQLStorage) UserCategories(ctx context.Context, userID int64) ([]string, error) {
	query := s.rebind(`SELECT default_categories FROM user_state WHERE user_id = ?`)

	var raw string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return append([]string(nil), DefaultCategories...), nil
	case err != nil:
		return nil, fmt.Errorf("query user categories: %w", err)
	}

	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, fmt.Errorf("decode user categories: %w", err)
	}
	return categories, nil
}

// SetUserCategories implements Storage.
func (s *SQLStorage) SetUserCategories(ctx context.Context, userID int64, categories []string) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode user categories: %w", err)
	}

	query := s.rebind(`INSERT INTO user_state (user_id, default_categories)
		VALUES (?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET default_categories = ?, last_active = CURRENT_TIMESTAMP`)

	if _, err := s.db.ExecContext(ctx, query, userID, string(raw), string(raw)); err != nil {
		return fmt.Errorf("upsert user categories: %w", err)
	}
	return nil
}

// Close implements Storage.
func (s *SQLStorage) Close() error {
	s.logger.Info("closing-storage", zap.String("driver", s.driver))
	return s.db.Close()
}
