package storage

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	condition_id TEXT NOT NULL,
	market_question TEXT NOT NULL,
	market_slug TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	bot_probability REAL NOT NULL,
	market_probability REAL NOT NULL,
	ev_per_dollar REAL NOT NULL,
	kelly_fraction REAL NOT NULL DEFAULT 0.0,
	recommendation TEXT NOT NULL,
	reasoning_text TEXT NOT NULL DEFAULT '',
	prompt_version TEXT NOT NULL DEFAULT '',
	resolved INTEGER NOT NULL DEFAULT 0,
	actual_outcome TEXT,
	resolution_date TEXT,
	brier_component REAL,
	news_article_count INTEGER NOT NULL DEFAULT 0,
	requested_by TEXT
);

CREATE TABLE IF NOT EXISTS user_state (
	user_id INTEGER PRIMARY KEY,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	last_active TEXT NOT NULL DEFAULT (datetime('now')),
	default_categories TEXT NOT NULL DEFAULT '["science","crypto","politics"]'
);

CREATE INDEX IF NOT EXISTS idx_predictions_condition ON predictions(condition_id);
CREATE INDEX IF NOT EXISTS idx_predictions_requested ON predictions(requested_by);
CREATE INDEX IF NOT EXISTS idx_predictions_resolved ON predictions(resolved);
`

// SQLiteConfig holds SQLite storage configuration.
type SQLiteConfig struct {
	Path   string
	Logger *zap.Logger
}

// NewSQLiteStorage opens (creating if needed) a SQLite database and
// applies the schema. WAL mode keeps the resolver and bot handlers from
// blocking each other.
func NewSQLiteStorage(cfg *SQLiteConfig) (*SQLStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	cfg.Logger.Info("sqlite-storage-opened", zap.String("path", cfg.Path))

	return &SQLStorage{db: db, driver: "sqlite", logger: cfg.Logger}, nil
}
