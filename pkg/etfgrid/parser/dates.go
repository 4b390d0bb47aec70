package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"go.uber.org/zap"
)

// dateKeyLayouts are accepted when coercing a date key to a calendar day.
var dateKeyLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006-1-2T15:04:05",
	time.RFC3339,
}

// DateAxis is the ordered list of date columns shared by every section.
type DateAxis []models.DateColumn

// Find returns the column whose key denotes the same day as key.
func (a DateAxis) Find(key string) (int, bool) {
	want := CanonicalDateKey(key)
	for _, dc := range a {
		if CanonicalDateKey(dc.Key) == want {
			return dc.Col, true
		}
	}
	return 0, false
}

// Previous returns the date column immediately before col on the axis.
func (a DateAxis) Previous(col int) (models.DateColumn, bool) {
	for i, dc := range a {
		if dc.Col == col {
			if i == 0 {
				return models.DateColumn{}, false
			}
			return a[i-1], true
		}
	}
	return models.DateColumn{}, false
}

// ReadDateAxis reads the shared date row rightward from the first data
// column until the first empty cell. It never fails: cells of unexpected
// kinds are stringified and reported as warnings.
func (p *Parser) ReadDateAxis(g grid.Grid) (DateAxis, []models.DateNormalizationWarning) {
	var axis DateAxis
	var warnings []models.DateNormalizationWarning
	for col := p.layout.FirstDataCol; ; col++ {
		v := g.Cell(p.layout.DateRow, col)
		if v.IsEmpty() {
			break
		}
		key, ok := NormalizeDateKey(v)
		if !ok {
			w := models.DateNormalizationWarning{Col: col, Kind: v.Kind(), Key: key}
			warnings = append(warnings, w)
			p.logger.Warn("Unexpected date cell", zap.String("warning", w.String()))
		}
		axis = append(axis, models.DateColumn{Col: col, Key: key})
	}
	return axis, warnings
}

// NormalizeDateKey converts a date axis cell into a YYYY-MM-DD key. Dates
// are formatted directly and text has "/" rewritten to "-". Other kinds are
// stringified and reported with ok == false.
func NormalizeDateKey(v models.Value) (key string, ok bool) {
	switch v.Kind() {
	case models.KindDate:
		t, _ := v.Date()
		return t.Format(models.DateLayout), true
	case models.KindText:
		s, _ := v.Text()
		return strings.ReplaceAll(strings.TrimSpace(s), "/", "-"), true
	case models.KindNumber:
		n, _ := v.Number()
		return strconv.FormatFloat(n, 'f', -1, 64), false
	case models.KindFormula, models.KindEmpty:
		return v.String(), false
	}
	return v.String(), false
}

// ParseDateKey coerces a normalized date key to a calendar day at UTC midnight.
func ParseDateKey(key string) (time.Time, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "/", "-")
	for _, layout := range dateKeyLayouts {
		if t, err := time.Parse(layout, key); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
}

// CanonicalDateKey returns the YYYY-MM-DD form of key when it parses, and key
// unchanged otherwise.
func CanonicalDateKey(key string) string {
	if t, err := ParseDateKey(key); err == nil {
		return t.Format(models.DateLayout)
	}
	return key
}
