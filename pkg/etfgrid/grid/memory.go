package grid

import (
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/xuri/excelize/v2"
)

type cellKey struct{ row, col int }

// Memory is a values-only grid held in memory.
type Memory struct {
	cells map[cellKey]models.Value
}

// NewMemory returns an empty grid.
func NewMemory() *Memory {
	return &Memory{cells: make(map[cellKey]models.Value)}
}

// LoadMemory reads the active sheet of an xlsx file into a Memory grid.
// Formulas keep their text and cached results; styles are dropped.
func LoadMemory(path string) (*Memory, error) {
	wb, err := OpenWorkbook(path, "")
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return Snapshot(wb), nil
}

// Cell implements Grid.
func (m *Memory) Cell(row, col int) models.Value {
	return m.cells[cellKey{row, col}]
}

// SetCell implements Grid.
func (m *Memory) SetCell(row, col int, v models.Value) error {
	if err := checkCoordinates(row, col); err != nil {
		return err
	}
	if v.Kind() == models.KindEmpty {
		delete(m.cells, cellKey{row, col})
		return nil
	}
	m.cells[cellKey{row, col}] = v
	return nil
}

// MaxRow implements Grid.
func (m *Memory) MaxRow() int {
	maxRow, _ := m.bounds()
	return maxRow
}

// MaxCol implements Grid.
func (m *Memory) MaxCol() int {
	_, maxCol := m.bounds()
	return maxCol
}

// bounds finds the bottom-right corner of the populated cells.
func (m *Memory) bounds() (maxRow, maxCol int) {
	for k := range m.cells {
		if k.row > maxRow {
			maxRow = k.row
		}
		if k.col > maxCol {
			maxCol = k.col
		}
	}
	return
}

// SaveAs writes the grid into a new single-sheet xlsx file. Formulas are
// written as formulas and dates as date-formatted numbers.
func (m *Memory) SaveAs(path, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	} else if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	w := &Workbook{file: f, sheet: sheetName, styles: make(map[int]bool), dateStyle: -1}
	for k, v := range m.cells {
		if err := w.SetCell(k.row, k.col, v); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
