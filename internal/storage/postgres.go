package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	condition_id TEXT NOT NULL,
	market_question TEXT NOT NULL,
	market_slug TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	bot_probability DOUBLE PRECISION NOT NULL,
	market_probability DOUBLE PRECISION NOT NULL,
	ev_per_dollar DOUBLE PRECISION NOT NULL,
	kelly_fraction DOUBLE PRECISION NOT NULL DEFAULT 0.0,
	recommendation TEXT NOT NULL,
	reasoning_text TEXT NOT NULL DEFAULT '',
	prompt_version TEXT NOT NULL DEFAULT '',
	resolved SMALLINT NOT NULL DEFAULT 0,
	actual_outcome TEXT,
	resolution_date TEXT,
	brier_component DOUBLE PRECISION,
	news_article_count INTEGER NOT NULL DEFAULT 0,
	requested_by TEXT
);

CREATE TABLE IF NOT EXISTS user_state (
	user_id BIGINT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_active TIMESTAMPTZ NOT NULL DEFAULT now(),
	default_categories TEXT NOT NULL DEFAULT '["science","crypto","politics"]'
);

CREATE INDEX IF NOT EXISTS idx_predictions_condition ON predictions(condition_id);
CREATE INDEX IF NOT EXISTS idx_predictions_requested ON predictions(requested_by);
CREATE INDEX IF NOT EXISTS idx_predictions_resolved ON predictions(resolved);
`

// PostgresConfig holds PostgreSQL storage configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects to PostgreSQL and applies the schema.
func NewPostgresStorage(cfg *PostgresConfig) (*SQLStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &SQLStorage{db: db, driver: "postgres", logger: cfg.Logger}, nil
}
