package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/xuri/excelize/v2"
)

// Workbook is a Grid over one sheet of an xlsx file. Edits are buffered in
// memory until Save and leave cell styles and untouched formulas intact.
type Workbook struct {
	file  *excelize.File
	path  string
	sheet string

	// styles caches whether a style id carries a date number format.
	styles    map[int]bool
	dateStyle int

	// maxRow and maxCol hold the data bounds once scanned; SetCell keeps
	// them current.
	maxRow, maxCol int
	boundsKnown    bool
}

// OpenWorkbook opens an xlsx file. An empty sheetName selects the active sheet.
func OpenWorkbook(path, sheetName string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	if sheetName == "" {
		sheetName = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		f.Close()
		return nil, fmt.Errorf("sheet %q not found in %s", sheetName, filepath.Base(path))
	}
	return &Workbook{
		file:      f,
		path:      path,
		sheet:     sheetName,
		styles:    make(map[int]bool),
		dateStyle: -1,
	}, nil
}

// SheetName returns the sheet the grid operates on.
func (w *Workbook) SheetName() string { return w.sheet }

// Close releases the underlying file.
func (w *Workbook) Close() error { return w.file.Close() }

// Cell implements Grid.
func (w *Workbook) Cell(row, col int) models.Value {
	if checkCoordinates(row, col) != nil {
		return models.Empty()
	}
	name := CellName(row, col)

	raw, err := w.file.GetCellValue(w.sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return models.Empty()
	}

	if formula, err := w.file.GetCellFormula(w.sheet, name); err == nil && formula != "" {
		if cached, err := strconv.ParseFloat(raw, 64); err == nil {
			return models.FormulaWithCache(formula, cached)
		}
		return models.Formula(formula)
	}

	if raw == "" {
		return models.Empty()
	}

	typ, err := w.file.GetCellType(w.sheet, name)
	if err != nil {
		return models.Text(raw)
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeBool, excelize.CellTypeError, excelize.CellTypeFormula:
		return models.Text(raw)
	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return models.Date(t)
		}
		return models.Text(raw)
	}

	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.Text(raw)
	}
	if w.isDateCell(name) {
		if t, err := excelize.ExcelDateToTime(num, false); err == nil {
			return models.Date(t)
		}
	}
	return models.Number(num)
}

// SetCell implements Grid.
func (w *Workbook) SetCell(row, col int, v models.Value) error {
	if err := checkCoordinates(row, col); err != nil {
		return err
	}
	name := CellName(row, col)
	if err := w.setCell(name, row, col, v); err != nil {
		return err
	}
	switch {
	case !w.boundsKnown:
	case v.IsEmpty():
		if row >= w.maxRow || col >= w.maxCol {
			w.boundsKnown = false
		}
	default:
		w.maxRow = max(w.maxRow, row)
		w.maxCol = max(w.maxCol, col)
	}
	return nil
}

func (w *Workbook) setCell(name string, row, col int, v models.Value) error {
	if v.Kind() != models.KindFormula {
		if formula, err := w.file.GetCellFormula(w.sheet, name); err == nil && formula != "" {
			if err := w.file.SetCellFormula(w.sheet, name, ""); err != nil {
				return err
			}
		}
	}

	switch v.Kind() {
	case models.KindEmpty:
		return w.file.SetCellValue(w.sheet, name, nil)
	case models.KindNumber:
		n, _ := v.Number()
		return w.file.SetCellFloat(w.sheet, name, n, -1, 64)
	case models.KindText:
		s, _ := v.Text()
		return w.file.SetCellStr(w.sheet, name, s)
	case models.KindDate:
		t, _ := v.Date()
		if err := w.applyDateStyle(row, col); err != nil {
			return err
		}
		return w.file.SetCellValue(w.sheet, name, t)
	case models.KindFormula:
		expr, _ := v.Formula()
		return w.file.SetCellFormula(w.sheet, name, expr)
	}
	return fmt.Errorf("cell %s: unsupported value kind %s", name, v.Kind())
}

// MaxRow implements Grid.
func (w *Workbook) MaxRow() int {
	w.loadBounds()
	return w.maxRow
}

// MaxCol implements Grid.
func (w *Workbook) MaxCol() int {
	w.loadBounds()
	return w.maxCol
}

func (w *Workbook) loadBounds() {
	if !w.boundsKnown {
		w.maxRow, w.maxCol = w.bounds()
		w.boundsKnown = true
	}
}

// bounds finds the last populated row and column. Formulas that were never
// calculated carry no value, so rows below the last value are also checked
// for formula text.
func (w *Workbook) bounds() (maxRow, maxCol int) {
	rows, err := w.file.GetRows(w.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0
	}
	for i, row := range rows {
		for c := len(row) - 1; c >= 0; c-- {
			if row[c] != "" {
				maxRow = i + 1
				maxCol = max(maxCol, c+1)
				break
			}
		}
	}
	for row := w.rowCount(); row > maxRow; row-- {
		for col := 1; col <= maxCol; col++ {
			if formula, err := w.file.GetCellFormula(w.sheet, CellName(row, col)); err == nil && formula != "" {
				return row, maxCol
			}
		}
	}
	return maxRow, maxCol
}

// rowCount returns the number of the last row element in the sheet.
func (w *Workbook) rowCount() int {
	rows, err := w.file.Rows(w.sheet)
	if err != nil {
		return 0
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	return n
}

// Save replaces the file on disk with the edited workbook. The new content
// is written to a temporary file in the same directory and renamed over the
// original, so readers never observe a partial document.
func (w *Workbook) Save() error {
	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := w.file.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", w.path, err)
	}
	return nil
}

// BackupFile copies path as it is on disk to
// <dir>/<name>.backup.<YYYYMMDD_HHMMSS>.xlsx. An empty dir places the copy
// next to the original.
func BackupFile(path, dir string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = filepath.Dir(path)
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := fmt.Sprintf("%s.backup.%s%s", strings.TrimSuffix(base, ext), now.Format("20060102_150405"), ext)
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", err
	}
	return target, nil
}

func parseISODate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", models.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
