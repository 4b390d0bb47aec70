package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
)

// ErrInvalidDate indicates a date key that is not a calendar day.
var ErrInvalidDate = errors.New("invalid date")

// ErrNoValue indicates a data cell that holds no numeric value.
var ErrNoValue = errors.New("cell holds no numeric value")

// ResolveNumber returns the numeric value of a data cell.
//
// Numbers are returned as-is and numeric text is parsed. Formulas are
// evaluated; when evaluation fails, the cached result stored with the
// formula is used instead, except for reference cycles. Empty cells, dates
// and other text yield ErrNoValue; failed formulas yield a
// *models.UnresolvableCellError.
func ResolveNumber(g grid.Grid, row, col int) (float64, error) {
	v := g.Cell(row, col)
	switch v.Kind() {
	case models.KindNumber:
		n, _ := v.Number()
		return n, nil
	case models.KindText:
		s, _ := v.Text()
		if n, ok := parseNumber(s); ok {
			return n, nil
		}
		return 0, ErrNoValue
	case models.KindFormula:
		expr, _ := v.Formula()
		n, err := Evaluate(g, expr, row, col)
		if err == nil {
			return n, nil
		}
		if cached, ok := v.Cached(); ok && !errors.Is(err, errCycle) {
			return cached, nil
		}
		return 0, err
	case models.KindEmpty, models.KindDate:
		return 0, ErrNoValue
	}
	return 0, ErrNoValue
}

// cellText returns the trimmed text of a label cell. Numbers are rendered so
// that numeric instrument codes still identify their rows.
func cellText(g grid.Grid, row, col int) string {
	v := g.Cell(row, col)
	switch v.Kind() {
	case models.KindText:
		s, _ := v.Text()
		return strings.TrimSpace(s)
	case models.KindNumber:
		return v.String()
	case models.KindEmpty, models.KindDate, models.KindFormula:
		return ""
	}
	return ""
}

// parseNumber attempts to parse a string value as a number. Surrounding
// whitespace and thousands separators are ignored.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, true
	}
	return 0, false
}
