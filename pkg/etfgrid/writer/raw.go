package writer

import (
	"fmt"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"go.uber.org/zap"
)

// WriteResult describes the cells touched by WriteQuote.
type WriteResult struct {
	// Column is the date column written to.
	Column int
	// Created reports whether the column was appended by this write.
	Created bool
	// Written counts raw cells written.
	Written int
	// Missing lists raw sections without a row for the instrument.
	Missing []*models.MissingInstrumentRowError
}

// WriteQuote writes the market value and unit price of q into every raw
// section, in the date column for q.Date. Derived sections are not touched;
// run Recalculate for the date afterwards.
func (w *Writer) WriteQuote(g grid.Grid, q models.Quote) (WriteResult, error) {
	col, created, err := w.LocateOrCreateColumn(g, q.Date)
	if err != nil {
		return WriteResult{}, err
	}
	res := WriteResult{Column: col, Created: created}

	sections, err := w.parser.DetectSections(g)
	if err != nil {
		return res, err
	}
	for _, s := range sections {
		var value float64
		switch s.Role {
		case models.RoleRawMarketValue:
			value = q.MarketValue
		case models.RoleRawUnitPrice:
			value = q.UnitPrice
		default:
			continue
		}

		row, ok := w.parser.FindRow(g, s, q.Code)
		if !ok {
			res.Missing = append(res.Missing, w.missing(q.Code, s))
			continue
		}
		if err := g.SetCell(row, col, models.Number(value)); err != nil {
			return res, fmt.Errorf("failed to write %s for %s: %w", s.Name, q.Code, err)
		}
		res.Written++
		w.logger.Debug("Wrote raw value",
			zap.String("code", q.Code),
			zap.String("section", s.Name),
			zap.Float64("value", value))
	}
	return res, nil
}
