// Package source fetches raw quotes for instruments from prioritized sources.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAllSourcesFailed is returned when no source could provide a quote.
var ErrAllSourcesFailed = errors.New("all sources failed")

// ErrNoQuote is returned by a source that has no data for a code and date.
var ErrNoQuote = errors.New("no quote")

// Source provides raw market data. Implementations must be safe for
// concurrent use.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Quote returns the market value and unit price of code on date (YYYY-MM-DD).
	Quote(ctx context.Context, code, date string) (models.Quote, error)
	// IsTradingDay reports whether the market is open on date.
	IsTradingDay(ctx context.Context, date string) (bool, error)
}

// Failure records an instrument whose quote could not be fetched.
type Failure struct {
	Code string
	Err  error
}

// Manager queries sources in priority order, falling back to the next one
// when a source fails.
type Manager struct {
	sources     []Source
	parallelism int
	logger      *zap.Logger
}

// NewManager returns a Manager over sources, highest priority first.
// parallelism bounds concurrent fetches in FetchAll; values below 1 mean 1.
func NewManager(logger *zap.Logger, parallelism int, sources ...Source) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &Manager{sources: sources, parallelism: parallelism, logger: logger}
}

// Quote returns the first successful quote among the sources.
func (m *Manager) Quote(ctx context.Context, code, date string) (models.Quote, error) {
	var errs []error
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return models.Quote{}, err
		}
		q, err := src.Quote(ctx, code, date)
		if err != nil {
			m.logger.Warn("Source failed", zap.String("source", src.Name()), zap.String("code", code), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		m.logger.Debug("Source succeeded", zap.String("source", src.Name()), zap.String("code", code))
		if q.Code == "" {
			q.Code = code
		}
		if q.Date == "" {
			q.Date = date
		}
		return q, nil
	}
	return models.Quote{}, fmt.Errorf("%w for %s on %s: %w", ErrAllSourcesFailed, code, date, errors.Join(errs...))
}

// IsTradingDay asks the sources in order. When none can answer, the day is
// assumed to be a trading day.
func (m *Manager) IsTradingDay(ctx context.Context, date string) bool {
	for _, src := range m.sources {
		open, err := src.IsTradingDay(ctx, date)
		if err == nil {
			return open
		}
		m.logger.Debug("Trading day check failed", zap.String("source", src.Name()), zap.Error(err))
	}
	m.logger.Warn("Cannot determine trading day, assuming open", zap.String("date", date))
	return true
}

// FetchAll fetches quotes for codes concurrently. Quotes are returned in the
// order of codes; instruments that could not be fetched are listed as
// failures and do not stop the others.
func (m *Manager) FetchAll(ctx context.Context, codes []string, date string) ([]models.Quote, []Failure) {
	quotes := make([]models.Quote, len(codes))
	errs := make([]error, len(codes))

	var g errgroup.Group
	g.SetLimit(m.parallelism)
	for i, code := range codes {
		g.Go(func() error {
			quotes[i], errs[i] = m.Quote(ctx, code, date)
			return nil
		})
	}
	_ = g.Wait()

	var ok []models.Quote
	var failures []Failure
	for i, code := range codes {
		if errs[i] != nil {
			failures = append(failures, Failure{Code: code, Err: errs[i]})
			continue
		}
		ok = append(ok, quotes[i])
	}
	return ok, failures
}

// canonicalDate normalizes YYYY-M-D or YYYY/MM/DD to YYYY-MM-DD.
func canonicalDate(s string) (string, time.Time, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.Format(models.DateLayout), t, nil
}
