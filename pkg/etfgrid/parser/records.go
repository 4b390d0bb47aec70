package parser

import (
	"errors"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"go.uber.org/zap"
)

// ExtractStats counts what extraction kept and dropped.
type ExtractStats struct {
	// Records is the number of records emitted.
	Records int
	// PerMetric counts emitted records by metric type.
	PerMetric map[string]int
	// Unresolved counts formula cells that could not be evaluated.
	Unresolved int
	// BadDates counts date columns dropped because their key is not a date.
	BadDates int
}

// Extract converts the grid into long-format records.
//
// Section detection runs first, so a *models.LayoutError is returned before
// any record is produced. Afterwards failures are local: unresolvable cells,
// blank cells and columns whose date key does not parse are skipped.
// Records follow section, row and column order; callers sort as they need.
func (p *Parser) Extract(g grid.Grid) ([]models.Record, ExtractStats, error) {
	stats := ExtractStats{PerMetric: make(map[string]int)}

	sections, err := p.DetectSections(g)
	if err != nil {
		return nil, stats, err
	}

	axis, _ := p.ReadDateAxis(g)
	type dateCol struct {
		col  int
		date time.Time
	}
	var dates []dateCol
	for _, dc := range axis {
		t, err := ParseDateKey(dc.Key)
		if err != nil {
			stats.BadDates++
			p.logger.Warn("Dropping date column", zap.Int("col", dc.Col), zap.String("key", dc.Key))
			continue
		}
		dates = append(dates, dateCol{col: dc.Col, date: t})
	}

	var records []models.Record
	for _, s := range sections {
		before := len(records)
		for row := s.DataRowStart; row <= s.DataRowEnd; row++ {
			code := cellText(g, row, p.layout.CodeCol)
			name := cellText(g, row, p.layout.NameCol)
			if code == "" && name == "" {
				continue
			}

			aggregate := p.match.IsAggregate(name)
			if aggregate {
				code = models.AggregateCode
			}

			for _, dc := range dates {
				value, err := ResolveNumber(g, row, dc.col)
				if err != nil {
					var unresolved *models.UnresolvableCellError
					if errors.As(err, &unresolved) {
						stats.Unresolved++
						p.logger.Debug("Dropping unresolvable cell", zap.Error(err))
					}
					continue
				}
				records = append(records, models.Record{
					Code:        code,
					Name:        name,
					Date:        dc.date,
					MetricType:  s.Name,
					Value:       value,
					IsAggregate: aggregate,
				})
			}
		}
		if n := len(records) - before; n > 0 {
			stats.PerMetric[s.Name] += n
		}
		p.logger.Info("Parsed section",
			zap.String("section", s.Name),
			zap.Int("records", len(records)-before))
	}

	stats.Records = len(records)
	return records, stats, nil
}
