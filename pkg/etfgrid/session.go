package etfgrid

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/parser"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/writer"
	"go.uber.org/zap"
)

// Session is one open workbook. Edits stay in memory until Save. A session
// is not safe for concurrent use.
type Session struct {
	path   string
	sheet  string
	opts   Options
	grid   grid.Grid
	native *grid.Workbook
	parser *parser.Parser
	writer *writer.Writer
	logger *zap.Logger
	now    func() time.Time
}

// ApplyReport summarizes Apply.
type ApplyReport struct {
	// Writes holds one result per applied quote, in input order.
	Writes []writer.WriteResult
	// Recalcs holds one report per distinct date, in first-seen order.
	Recalcs []writer.RecalcReport
}

// Open loads the workbook at path with the configured backend.
func Open(path string, opts Options) (*Session, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := opts.logger()
	p := parser.New(opts.Layout, opts.Keywords, logger)
	s := &Session{
		path:   path,
		opts:   opts,
		parser: p,
		writer: writer.New(p, logger),
		logger: logger,
		now:    time.Now,
	}

	wb, err := grid.OpenWorkbook(path, opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	s.sheet = wb.SheetName()
	switch opts.Backend {
	case BackendNative:
		s.grid, s.native = wb, wb
	case BackendStructural:
		s.grid = grid.Snapshot(wb)
		wb.Close()
	}

	logger.Info("Opened workbook",
		zap.String("path", path),
		zap.String("sheet", s.sheet),
		zap.String("backend", string(opts.Backend)))
	return s, nil
}

// NewSession wraps an existing grid, typically a grid.Memory. Save writes
// the grid to path as a new values-only workbook.
func NewSession(g grid.Grid, path string, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.logger()
	p := parser.New(opts.Layout, opts.Keywords, logger)
	return &Session{
		path:   path,
		sheet:  opts.Sheet,
		opts:   opts,
		grid:   g,
		parser: p,
		writer: writer.New(p, logger),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Grid returns the grid the session edits.
func (s *Session) Grid() grid.Grid { return s.grid }

// InstrumentCodes lists the instruments of the raw market value section.
func (s *Session) InstrumentCodes() ([]string, error) {
	return s.writer.InstrumentCodes(s.grid)
}

// Apply writes quotes into the raw sections, then recalculates the derived
// sections once per distinct date. Recalculation always follows the raw
// writes of its date.
func (s *Session) Apply(quotes ...models.Quote) (ApplyReport, error) {
	var report ApplyReport
	var dates []string
	for _, q := range quotes {
		res, err := s.writer.WriteQuote(s.grid, q)
		if err != nil {
			return report, fmt.Errorf("failed to write %s on %s: %w", q.Code, q.Date, err)
		}
		report.Writes = append(report.Writes, res)
		if key := parser.CanonicalDateKey(q.Date); !slices.Contains(dates, key) {
			dates = append(dates, key)
		}
	}
	for _, date := range dates {
		rr, err := s.writer.Recalculate(s.grid, date)
		if err != nil {
			return report, fmt.Errorf("failed to recalculate %s: %w", date, err)
		}
		report.Recalcs = append(report.Recalcs, rr)
	}
	return report, nil
}

// Recalculate recomputes the derived sections for date.
func (s *Session) Recalculate(date string) (writer.RecalcReport, error) {
	return s.writer.Recalculate(s.grid, date)
}

// Save writes the session back to its file. With backups enabled, the file
// as it is on disk is copied first. The native backend replaces the file
// atomically; the structural backend rewrites it without styles.
func (s *Session) Save() error {
	if s.opts.Backup.Enabled {
		if err := checkExists(s.path); err == nil {
			backup, err := grid.BackupFile(s.path, s.opts.Backup.Dir, s.now())
			if err != nil {
				s.logger.Warn("Backup failed", zap.String("path", s.path), zap.Error(err))
			} else {
				s.logger.Info("Created backup", zap.String("path", backup))
			}
		}
	}

	var err error
	switch {
	case s.native != nil:
		err = s.native.Save()
	default:
		mem, ok := s.grid.(*grid.Memory)
		if !ok {
			return errors.New("session grid cannot be saved")
		}
		err = mem.SaveAs(s.path, s.sheet)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", s.path, err)
	}
	s.logger.Info("Saved workbook", zap.String("path", s.path))
	return nil
}

// Close releases the workbook. Unsaved edits are discarded.
func (s *Session) Close() error {
	if s.native != nil {
		return s.native.Close()
	}
	return nil
}

func (s *Session) logMetricCounts(perMetric map[string]int) {
	for metric, n := range perMetric {
		s.logger.Info("Extracted metric", zap.String("metric", metric), zap.Int("records", n))
	}
}
