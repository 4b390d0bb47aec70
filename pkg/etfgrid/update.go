package etfgrid

import (
	"context"
	"fmt"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/parser"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/source"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/writer"
	"go.uber.org/zap"
)

// Fetcher supplies quotes for an update. *source.Manager implements it.
type Fetcher interface {
	IsTradingDay(ctx context.Context, date string) bool
	FetchAll(ctx context.Context, codes []string, date string) ([]models.Quote, []source.Failure)
}

// UpdateReport summarizes one Update run.
type UpdateReport struct {
	// Date is the canonical date updated.
	Date string
	// Skipped is non-empty when nothing was written, and says why.
	Skipped string
	// Succeeded lists instruments whose raw values were written.
	Succeeded []string
	// Failures lists instruments whose quotes could not be fetched.
	Failures []source.Failure
	// Missing lists sections without a row for a fetched instrument.
	Missing []*models.MissingInstrumentRowError
	// Recalc is the derived-section recalculation of Date.
	Recalc writer.RecalcReport
}

// Update fetches quotes for every instrument of the session on date, writes
// them into the raw sections and recalculates the derived sections. Nothing
// is written on non-trading days or when no quote could be fetched. The
// session is not saved.
func Update(ctx context.Context, s *Session, f Fetcher, date string) (UpdateReport, error) {
	day, err := parseDate(date)
	if err != nil {
		return UpdateReport{}, err
	}
	report := UpdateReport{Date: day}

	if !f.IsTradingDay(ctx, day) {
		report.Skipped = "not a trading day"
		s.logger.Info("Skipping update", zap.String("date", day), zap.String("reason", report.Skipped))
		return report, nil
	}

	codes, err := s.InstrumentCodes()
	if err != nil {
		return report, err
	}
	if len(codes) == 0 {
		report.Skipped = "no instruments"
		return report, nil
	}
	s.logger.Info("Fetching quotes", zap.String("date", day), zap.Int("instruments", len(codes)))

	quotes, failures := f.FetchAll(ctx, codes, day)
	report.Failures = failures
	for _, fail := range failures {
		s.logger.Warn("Quote fetch failed", zap.String("code", fail.Code), zap.Error(fail.Err))
	}
	if len(quotes) == 0 {
		report.Skipped = "no quotes fetched"
		return report, nil
	}

	for i := range quotes {
		quotes[i].Date = day
	}
	applied, err := s.Apply(quotes...)
	if err != nil {
		return report, err
	}
	for i, res := range applied.Writes {
		if res.Written > 0 {
			report.Succeeded = append(report.Succeeded, quotes[i].Code)
		}
		report.Missing = append(report.Missing, res.Missing...)
	}
	if len(applied.Recalcs) > 0 {
		report.Recalc = applied.Recalcs[0]
		report.Missing = append(report.Missing, report.Recalc.Missing...)
	}

	s.logger.Info("Update finished",
		zap.String("date", day),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failures)))
	return report, nil
}

func parseDate(date string) (string, error) {
	t, err := parser.ParseDateKey(date)
	if err != nil {
		return "", fmt.Errorf("invalid update date: %w", err)
	}
	return t.Format(models.DateLayout), nil
}
