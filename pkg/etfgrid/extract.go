package etfgrid

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
)

// Extract converts the workbook at path into long-format records.
func Extract(path string, opts Options) ([]models.Record, error) {
	s, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Extract()
}

// Inspect reports the sections and date axis inferred from the workbook at path.
func Inspect(path string, opts Options) (*models.WorkbookLayout, error) {
	s, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Layout()
}

// Extract converts the session grid into long-format records.
func (s *Session) Extract() ([]models.Record, error) {
	records, stats, err := s.parser.Extract(s.grid)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for %s: %w", filepath.Base(s.path), err)
	}
	s.logMetricCounts(stats.PerMetric)
	return records, nil
}

// Layout reports the sections and date axis inferred from the session grid.
func (s *Session) Layout() (*models.WorkbookLayout, error) {
	sections, err := s.parser.DetectSections(s.grid)
	if err != nil {
		return nil, err
	}
	axis, _ := s.parser.ReadDateAxis(s.grid)
	return &models.WorkbookLayout{
		BookName:  filepath.Base(s.path),
		SheetName: s.sheet,
		Sections:  sections,
		Dates:     axis,
	}, nil
}

func checkExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return nil
}
