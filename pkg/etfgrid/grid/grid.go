// Package grid provides read/write access to the cell grid of one worksheet.
//
// Two backends satisfy Grid: Workbook, which edits an xlsx file in place and
// preserves styles and formulas, and Memory, which holds values only.
// Callers must not depend on which backend is active.
package grid

import (
	"fmt"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/xuri/excelize/v2"
)

// Grid is 1-based (row, col) access to a single sheet.
type Grid interface {
	// Cell returns the value at (row, col). Out-of-range cells are Empty.
	Cell(row, col int) models.Value
	// SetCell replaces the value at (row, col).
	SetCell(row, col int, v models.Value) error
	// MaxRow returns the last populated row, or 0 for an empty grid.
	MaxRow() int
	// MaxCol returns the last populated column, or 0 for an empty grid.
	MaxCol() int
}

// CellName returns the A1-style name of (row, col).
func CellName(row, col int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", row, col)
	}
	return name
}

// Snapshot copies every populated cell of g into a new Memory grid.
func Snapshot(g Grid) *Memory {
	m := NewMemory()
	maxRow, maxCol := g.MaxRow(), g.MaxCol()
	for r := 1; r <= maxRow; r++ {
		for c := 1; c <= maxCol; c++ {
			if v := g.Cell(r, c); v.Kind() != models.KindEmpty {
				m.cells[cellKey{r, c}] = v
			}
		}
	}
	return m
}

func checkCoordinates(row, col int) error {
	if row < 1 || col < 1 || row > excelize.TotalRows || col > excelize.MaxColumns {
		return fmt.Errorf("cell coordinates out of range: row %d, col %d", row, col)
	}
	return nil
}
