package storage

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/forecast"
)

func newMockStorage(t *testing.T, driver string) (*SQLStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &SQLStorage{db: db, driver: driver, logger: zap.NewNop()}, mock
}

func sampleResult() *forecast.Result {
	return &forecast.Result{
		ConditionID:   "0xabc",
		Question:      "Will Jerome Powell resign before 2026?",
		Slug:          "powell-resign-2026",
		Reasoning:     "reasoning text",
		PromptVersion: "v1",
		ArticleCount:  7,
		Outcomes: []forecast.OutcomeForecast{
			{Outcome: "Yes", BotProbability: 0.62, MarketProbability: 0.25,
				EVPerDollar: 0.37, KellyFraction: 0.165, Recommendation: forecast.StrongBuy},
			{Outcome: "No", BotProbability: 0.38, MarketProbability: 0.75,
				EVPerDollar: -0.37, KellyFraction: 0, Recommendation: forecast.Avoid},
		},
	}
}

func TestSaveForecast_OneRowPerOutcome(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO predictions").
		WithArgs("0xabc", "Will Jerome Powell resign before 2026?", "powell-resign-2026",
			"Yes", 0.62, 0.25, 0.37, 0.165, "STRONG_BUY", "reasoning text", "v1", 7, "user-42").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO predictions").
		WithArgs("0xabc", "Will Jerome Powell resign before 2026?", "powell-resign-2026",
			"No", 0.38, 0.75, -0.37, 0.0, "AVOID", "reasoning text", "v1", 7, "user-42").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	if err := s.SaveForecast(context.Background(), sampleResult(), "user-42"); err != nil {
		t.Fatalf("save forecast: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveForecast_RollsBackOnError(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO predictions").
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	if err := s.SaveForecast(context.Background(), sampleResult(), ""); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRebind_Postgres(t *testing.T) {
	s := &SQLStorage{driver: "postgres"}

	got := s.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
}

func TestRebind_SQLitePassthrough(t *testing.T) {
	s := &SQLStorage{driver: "sqlite"}

	query := "SELECT * FROM t WHERE a = ?"
	if got := s.rebind(query); got != query {
		t.Errorf("rebind = %q, want unchanged", got)
	}
}

func TestMarkResolved(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectExec("UPDATE predictions").
		WithArgs("Yes", sqlmock.AnyArg(), 0.1444, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.MarkResolved(context.Background(), 7, "Yes", 0.1444); err != nil {
		t.Fatalf("mark resolved: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func predictionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "created_at", "condition_id", "market_question", "market_slug",
		"outcome", "bot_probability", "market_probability", "ev_per_dollar",
		"kelly_fraction", "recommendation", "resolved", "actual_outcome",
		"brier_component", "requested_by",
	})
}

func TestResolvedRows_ScansBrierComponent(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectQuery("SELECT (.+) FROM predictions WHERE resolved = 1").
		WillReturnRows(predictionRows().
			AddRow(1, "2026-08-20 10:00:00", "0xabc", "q", "s",
				"Yes", 0.8, 0.5, 0.3, 0.15, "STRONG_BUY", 1, "Yes", 0.04, "user-42"))

	rows, err := s.ResolvedRows(context.Background(), "")
	if err != nil {
		t.Fatalf("resolved rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if !row.Resolved || row.ActualOutcome != "Yes" {
		t.Errorf("unexpected row: %+v", row)
	}
	if row.BrierComponent == nil || *row.BrierComponent != 0.04 {
		t.Errorf("brier = %v, want 0.04", row.BrierComponent)
	}
	if row.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}
}

func TestUnresolvedByMarket(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectQuery("SELECT (.+) FROM predictions WHERE condition_id = (.+) AND resolved = 0").
		WithArgs("0xabc").
		WillReturnRows(predictionRows().
			AddRow(1, "2026-08-20 10:00:00", "0xabc", "q", "s",
				"Yes", 0.8, 0.5, 0.3, 0.15, "STRONG_BUY", 0, nil, nil, nil))

	rows, err := s.UnresolvedByMarket(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("unresolved by market: %v", err)
	}
	if len(rows) != 1 || rows[0].Resolved {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if rows[0].BrierComponent != nil {
		t.Error("unresolved row must have nil brier component")
	}
}

func TestUserCategories_DefaultForUnknownUser(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectQuery("SELECT default_categories FROM user_state").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"default_categories"}))

	categories, err := s.UserCategories(context.Background(), 42)
	if err != nil {
		t.Fatalf("user categories: %v", err)
	}
	if len(categories) != 3 || categories[0] != "science" {
		t.Errorf("got %v, want defaults", categories)
	}
}

func TestUserCategories_ParsesStored(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectQuery("SELECT default_categories FROM user_state").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"default_categories"}).
			AddRow(`["sports","economy"]`))

	categories, err := s.UserCategories(context.Background(), 42)
	if err != nil {
		t.Fatalf("user categories: %v", err)
	}
	if len(categories) != 2 || categories[0] != "sports" {
		t.Errorf("got %v", categories)
	}
}

func TestSetUserCategories(t *testing.T) {
	s, mock := newMockStorage(t, "sqlite")

	mock.ExpectExec("INSERT INTO user_state").
		WithArgs(int64(42), `["crypto"]`, `["crypto"]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.SetUserCategories(context.Background(), 42, []string{"crypto"}); err != nil {
		t.Fatalf("set user categories: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
