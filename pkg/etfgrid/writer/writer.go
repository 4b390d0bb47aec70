// Package writer performs schema-preserving writes: upserting date columns,
// writing raw quotes and recomputing derived sections.
package writer

import (
	"fmt"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/parser"
	"go.uber.org/zap"
)

// Writer edits grids whose structure is inferred by a parser.Parser.
type Writer struct {
	parser *parser.Parser
	logger *zap.Logger
}

// New returns a Writer. A nil logger discards log output.
func New(p *parser.Parser, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{parser: p, logger: logger}
}

// LocateOrCreateColumn returns the column of the date axis holding target.
// When no column matches, one is appended right after the last date column
// and target is written into the date row as a native date. Calling it again
// with the same date returns the same column.
func (w *Writer) LocateOrCreateColumn(g grid.Grid, target string) (col int, created bool, err error) {
	day, err := parser.ParseDateKey(target)
	if err != nil {
		return 0, false, err
	}

	axis, _ := w.parser.ReadDateAxis(g)
	if col, ok := axis.Find(target); ok {
		return col, false, nil
	}

	l := w.parser.Layout()
	col = l.FirstDataCol + len(axis)
	if err := g.SetCell(l.DateRow, col, models.Date(day)); err != nil {
		return 0, false, fmt.Errorf("failed to write date header: %w", err)
	}
	w.logger.Info("Created date column",
		zap.String("date", day.Format(models.DateLayout)),
		zap.String("cell", grid.CellName(l.DateRow, col)))
	return col, true, nil
}

// InstrumentCodes lists the instrument codes of the first raw market-value
// section, skipping aggregate rows.
func (w *Writer) InstrumentCodes(g grid.Grid) ([]string, error) {
	sections, err := w.parser.DetectSections(g)
	if err != nil {
		return nil, err
	}
	raw := parser.SectionsWithRole(sections, models.RoleRawMarketValue)
	if len(raw) == 0 {
		return nil, &models.LayoutError{Reason: "no raw market value section"}
	}

	var codes []string
	seen := make(map[string]bool)
	for row := raw[0].DataRowStart; row <= raw[0].DataRowEnd; row++ {
		code, name := w.parser.RowLabels(g, row)
		if code == "" || seen[code] || w.parser.Matcher().IsAggregate(name) {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

func (w *Writer) missing(code string, s models.Section) *models.MissingInstrumentRowError {
	err := &models.MissingInstrumentRowError{Code: code, Section: s.Name}
	w.logger.Warn("Instrument row not found", zap.String("code", code), zap.String("section", s.Name))
	return err
}
