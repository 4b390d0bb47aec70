package parser

import (
	"testing"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/xuri/excelize/v2"
)

// newGrid builds a Memory grid from A1-addressed cells.
func newGrid(t *testing.T, cells map[string]models.Value) *grid.Memory {
	t.Helper()
	g := grid.NewMemory()
	for name, v := range cells {
		col, row, err := excelize.CellNameToCoordinates(name)
		if err != nil {
			t.Fatalf("bad cell name %q: %v", name, err)
		}
		if err := g.SetCell(row, col, v); err != nil {
			t.Fatalf("SetCell(%s) failed: %v", name, err)
		}
	}
	return g
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sampleGrid is a two-instrument document with a headerless market value
// block, a unit price section and an empty share count section:
//
//	row 1   label 总市值
//	row 2   2026-02-04 | 2026/2/5
//	row 3-5 510300, 510500, 合计
//	row 7   单位市值 (header), rows 8-9
//	row 10  份额 (header), rows 11-12
func sampleGrid(t *testing.T) *grid.Memory {
	return newGrid(t, map[string]models.Value{
		"C1": models.Text("总市值"),
		"C2": models.Date(day(2026, 2, 4)),
		"D2": models.Text("2026/2/5"),

		"A3": models.Text("510300"), "B3": models.Text("沪深300ETF"), "C3": models.Number(100), "D3": models.Number(110),
		"A4": models.Text("510500"), "B4": models.Text("中证500ETF"), "C4": models.Number(50), "D4": models.Number(60),
		"B5": models.Text("合计"), "C5": models.FormulaWithCache("SUM(C3:C4)", 150), "D5": models.Formula("=SUM(D3:D4)"),

		"B7": models.Text("单位市值"),
		"A8": models.Text("510300"), "C8": models.Number(2), "D8": models.Number(2.2),
		"A9": models.Text("510500"), "C9": models.Number(1), "D9": models.Number(1.2),

		"B10": models.Text("份额"),
		"A11": models.Text("510300"),
		"A12": models.Text("510500"),
	})
}

func newTestParser() *Parser {
	return New(models.DefaultLayout(), models.DefaultKeywords(), nil)
}
