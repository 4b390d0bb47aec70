package writer

import (
	"errors"
	"testing"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/parser"
	"github.com/xuri/excelize/v2"
)

// fixture is a two-instrument document holding every section role, with
// raw values for 2026-02-04 only.
var fixture = map[string]models.Value{
	"C1": models.Text("总市值"),
	"C2": models.Date(time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)),

	"A3": models.Text("X"), "B3": models.Text("Fund X"), "C3": models.Number(100),
	"A4": models.Text("Y"), "B4": models.Text("Fund Y"), "C4": models.Number(50),
	"B5": models.Text("合计"), "C5": models.Formula("SUM(C3:C4)"),

	"B7": models.Text("单位市值"),
	"A8": models.Text("X"), "C8": models.Number(2),
	"A9": models.Text("Y"), "C9": models.Number(1),

	"B10": models.Text("份额"), "A11": models.Text("X"), "A12": models.Text("Y"),
	"B13": models.Text("份额变动"), "A14": models.Text("X"), "A15": models.Text("Y"),
	"B16": models.Text("申赎净额"), "A17": models.Text("X"), "A18": models.Text("Y"),
	"B19": models.Text("份额变动比例"), "A20": models.Text("X"), "A21": models.Text("Y"),
	"B22": models.Text("市值变动"), "A23": models.Text("X"), "A24": models.Text("Y"),
	"B25": models.Text("涨跌幅"), "A26": models.Text("X"), "A27": models.Text("Y"),
}

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

func newTestWriter() *Writer {
	return New(parser.New(models.DefaultLayout(), models.DefaultKeywords(), nil), nil)
}

// number reads a numeric cell by A1 name.
func number(t *testing.T, g grid.Grid, name string) (float64, bool) {
	t.Helper()
	col, row, err := excelize.CellNameToCoordinates(name)
	if err != nil {
		t.Fatal(err)
	}
	return g.Cell(row, col).Number()
}

func TestLocateOrCreateColumn(t *testing.T) {
	g := newGrid(t, fixture)
	w := newTestWriter()

	col, created, err := w.LocateOrCreateColumn(g, "2026/02/04")
	if err != nil || col != 3 || created {
		t.Fatalf("LocateOrCreateColumn(existing) = %d, %v, %v; want 3, false, nil", col, created, err)
	}

	col, created, err = w.LocateOrCreateColumn(g, "2026-02-05")
	if err != nil || col != 4 || !created {
		t.Fatalf("LocateOrCreateColumn(new) = %d, %v, %v; want 4, true, nil", col, created, err)
	}
	if d, ok := g.Cell(2, 4).Date(); !ok || d.Format(models.DateLayout) != "2026-02-05" {
		t.Errorf("date row holds %v, want a native date 2026-02-05", g.Cell(2, 4))
	}
	maxCol := g.MaxCol()

	col, created, err = w.LocateOrCreateColumn(g, "2026-2-5")
	if err != nil || col != 4 || created {
		t.Errorf("LocateOrCreateColumn(repeat) = %d, %v, %v; want 4, false, nil", col, created, err)
	}
	if g.MaxCol() != maxCol {
		t.Errorf("MaxCol() = %d after repeat, want %d", g.MaxCol(), maxCol)
	}

	if _, _, err := w.LocateOrCreateColumn(g, "someday"); !errors.Is(err, parser.ErrInvalidDate) {
		t.Errorf("LocateOrCreateColumn(someday) error = %v, want ErrInvalidDate", err)
	}
}

func TestInstrumentCodes(t *testing.T) {
	g := newGrid(t, fixture)
	_ = g.SetCell(5, 1, models.Text("SUM"))

	codes, err := newTestWriter().InstrumentCodes(g)
	if err != nil {
		t.Fatalf("InstrumentCodes() error = %v", err)
	}
	if len(codes) != 2 || codes[0] != "X" || codes[1] != "Y" {
		t.Errorf("InstrumentCodes() = %v, want [X Y]", codes)
	}
}

func TestWriteQuoteRoundTrip(t *testing.T) {
	g := newGrid(t, fixture)
	w := newTestWriter()

	res, err := w.WriteQuote(g, models.Quote{Code: "X", Date: "2026-02-05", MarketValue: 120.5, UnitPrice: 3.2})
	if err != nil {
		t.Fatalf("WriteQuote() error = %v", err)
	}
	if res.Column != 4 || !res.Created || res.Written != 2 || len(res.Missing) != 0 {
		t.Errorf("WriteQuote() = %+v, want column 4 created with 2 cells written", res)
	}

	p := parser.New(models.DefaultLayout(), models.DefaultKeywords(), nil)
	records, _, err := p.Extract(g)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	got := make(map[string]float64)
	for _, r := range records {
		if r.Code == "X" && r.DateKey() == "2026-02-05" {
			got[r.MetricType] = r.Value
		}
	}
	if got["总市值"] != 120.5 || got["单位市值"] != 3.2 || len(got) != 2 {
		t.Errorf("records for X on 2026-02-05 = %v, want 总市值 120.5 and 单位市值 3.2", got)
	}
}

func TestWriteQuoteMissingInstrument(t *testing.T) {
	g := newGrid(t, fixture)

	res, err := newTestWriter().WriteQuote(g, models.Quote{Code: "Z", Date: "2026-02-04", MarketValue: 1, UnitPrice: 1})
	if err != nil {
		t.Fatalf("WriteQuote() error = %v", err)
	}
	if res.Written != 0 || len(res.Missing) != 2 {
		t.Fatalf("WriteQuote() = %+v, want nothing written and 2 missing rows", res)
	}
	for _, m := range res.Missing {
		if !errors.Is(m, models.ErrMissingInstrumentRow) || m.Code != "Z" {
			t.Errorf("missing = %v, want a missing row for Z", m)
		}
	}
}
