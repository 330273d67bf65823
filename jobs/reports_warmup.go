package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hd-motorparts/partsledger/internal/reports"
)

// ReportsWarmupJob pre-populates the report caches so the first
// dashboard hit after an invalidation stays cheap.
type ReportsWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(reportsSvc *reports.Service, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{
		Reports: reportsSvc,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes reports warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.VATMonths <= 0 {
		payload.VATMonths = 3
	}

	started := j.clock()
	if _, err := j.Reports.Dashboard(ctx, reports.DateRange{}); err != nil {
		return err
	}
	if _, err := j.Reports.Inventory(ctx); err != nil {
		return err
	}
	now := j.clock()
	for i := 0; i < payload.VATMonths; i++ {
		at := now.AddDate(0, -i, 0)
		if _, err := j.Reports.VAT(ctx, at.Year(), int(at.Month())); err != nil {
			return err
		}
	}
	if _, err := j.Reports.Profitability(ctx, reports.DateRange{}, reports.SortByProfit); err != nil {
		return err
	}

	if j.Logger != nil {
		j.Logger.Info("report caches warmed",
			slog.Int("vat_months", payload.VATMonths),
			slog.Duration("took", j.clock().Sub(started)))
	}
	return nil
}
