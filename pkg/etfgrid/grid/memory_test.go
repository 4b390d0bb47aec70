package grid

import (
	"path/filepath"
	"testing"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	if m.MaxRow() != 0 || m.MaxCol() != 0 {
		t.Fatalf("empty grid bounds = (%d,%d), want (0,0)", m.MaxRow(), m.MaxCol())
	}

	if err := m.SetCell(3, 4, models.Number(1.5)); err != nil {
		t.Fatalf("SetCell() error = %v", err)
	}
	if err := m.SetCell(7, 2, models.Text("份额")); err != nil {
		t.Fatalf("SetCell() error = %v", err)
	}

	if n, ok := m.Cell(3, 4).Number(); !ok || n != 1.5 {
		t.Errorf("Cell(3,4) = %v, want 1.5", m.Cell(3, 4))
	}
	if !m.Cell(1, 1).IsEmpty() {
		t.Errorf("Cell(1,1) = %v, want empty", m.Cell(1, 1))
	}
	if m.MaxRow() != 7 || m.MaxCol() != 4 {
		t.Errorf("bounds = (%d,%d), want (7,4)", m.MaxRow(), m.MaxCol())
	}

	if err := m.SetCell(7, 2, models.Empty()); err != nil {
		t.Fatalf("SetCell(Empty) error = %v", err)
	}
	if m.MaxRow() != 3 {
		t.Errorf("MaxRow() after clearing = %d, want 3", m.MaxRow())
	}

	if err := m.SetCell(0, 1, models.Number(1)); err == nil {
		t.Error("SetCell(0,1) succeeded, want coordinate error")
	}
}

func TestMemorySaveAndLoad(t *testing.T) {
	m := NewMemory()
	cells := map[[2]int]models.Value{
		{1, 3}: models.Text("总市值"),
		{2, 3}: models.Date(testDay),
		{3, 1}: models.Text("510300"),
		{3, 3}: models.Number(120.5),
		{4, 3}: models.Formula("SUM(C3:C3)"),
	}
	for pos, v := range cells {
		if err := m.SetCell(pos[0], pos[1], v); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "values.xlsx")
	if err := m.SaveAs(path, "Data"); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	loaded, err := LoadMemory(path)
	if err != nil {
		t.Fatalf("LoadMemory() error = %v", err)
	}
	for pos, want := range cells {
		got := loaded.Cell(pos[0], pos[1])
		if got.Kind() != want.Kind() || got.String() != want.String() {
			t.Errorf("Cell%v = %v (%s), want %v (%s)", pos, got, got.Kind(), want, want.Kind())
		}
	}
}

func TestSnapshot(t *testing.T) {
	src := NewMemory()
	_ = src.SetCell(2, 2, models.Text("x"))

	snap := Snapshot(src)
	_ = src.SetCell(2, 2, models.Text("y"))

	if s, _ := snap.Cell(2, 2).Text(); s != "x" {
		t.Errorf("snapshot changed with its source: got %q", s)
	}
}
