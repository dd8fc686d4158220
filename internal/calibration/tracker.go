package calibration

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/storage"
)

// Store is the slice of the storage layer the tracker needs.
type Store interface {
	UnresolvedByMarket(ctx context.Context, conditionID string) ([]storage.PredictionRow, error)
	MarkResolved(ctx context.Context, id int64, actualOutcome string, brier float64) error
	ResolvedRows(ctx context.Context, requestedBy string) ([]storage.PredictionRow, error)
}

// Tracker resolves stored predictions against settled outcomes and
// serves calibration reports.
type Tracker struct {
	store  Store
	logger *zap.Logger
}

// NewTracker creates a calibration tracker.
func NewTracker(store Store, logger *zap.Logger) (*Tracker, error) {
	if store == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Tracker{store: store, logger: logger}, nil
}

// Resolve marks every unresolved prediction for a market against the
// winning outcome, computing each row's Brier component. Returns the
// number of rows resolved.
func (t *Tracker) Resolve(ctx context.Context, conditionID, winningOutcome string) (int, error) {
	rows, err := t.store.UnresolvedByMarket(ctx, conditionID)
	if err != nil {
		return 0, fmt.Errorf("load unresolved predictions: %w", err)
	}

	var resolved int
	for _, row := range rows {
		won := strings.EqualFold(row.Outcome, winningOutcome)
		brier := BrierComponent(row.BotProbability, won)
		if err := t.store.MarkResolved(ctx, row.ID, winningOutcome, brier); err != nil {
			return resolved, fmt.Errorf("mark prediction %d resolved: %w", row.ID, err)
		}
		resolved++
	}

	if resolved > 0 {
		t.logger.Info("market-resolved",
			zap.String("condition-id", conditionID),
			zap.String("winning-outcome", winningOutcome),
			zap.Int("predictions", resolved))
	}

	return resolved, nil
}

// Report builds the calibration report. Empty requestedBy covers all
// requesters.
func (t *Tracker) Report(ctx context.Context, requestedBy string) (*Report, error) {
	rows, err := t.store.ResolvedRows(ctx, requestedBy)
	if err != nil {
		return nil, fmt.Errorf("load resolved predictions: %w", err)
	}
	return BuildReport(rows), nil
}
