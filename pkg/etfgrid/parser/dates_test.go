package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
)

func TestNormalizeDateKey(t *testing.T) {
	tests := []struct {
		name   string
		value  models.Value
		want   string
		wantOK bool
	}{
		{"date", models.Date(day(2026, 2, 5)), "2026-02-05", true},
		{"iso text", models.Text("2026-02-05"), "2026-02-05", true},
		{"slash text", models.Text(" 2026/2/5 "), "2026-2-5", true},
		{"number", models.Number(46058), "46058", false},
		{"formula", models.Formula("TODAY()"), "=TODAY()", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDateKey(tt.value)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeDateKey() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseDateKey(t *testing.T) {
	want := day(2026, 2, 5)
	valid := []string{
		"2026-02-05",
		"2026-2-5",
		"2026/02/05",
		"2026-02-05 00:00:00",
		"2026-02-05T15:30:00",
		"2026-02-05T09:00:00+08:00",
	}
	for _, key := range valid {
		got, err := ParseDateKey(key)
		if err != nil {
			t.Errorf("ParseDateKey(%q) error = %v", key, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("ParseDateKey(%q) = %v, want %v", key, got, want)
		}
	}

	for _, key := range []string{"", "46058", "2026-13-01", "yesterday"} {
		if _, err := ParseDateKey(key); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDateKey(%q) error = %v, want ErrInvalidDate", key, err)
		}
	}
}

func TestReadDateAxis(t *testing.T) {
	g := newGrid(t, map[string]models.Value{
		"C2": models.Date(day(2026, 2, 4)),
		"D2": models.Text("2026/2/5"),
		"E2": models.Number(46059),
		"G2": models.Text("2026-02-09"),
	})

	axis, warnings := newTestParser().ReadDateAxis(g)

	want := DateAxis{
		{Col: 3, Key: "2026-02-04"},
		{Col: 4, Key: "2026-2-5"},
		{Col: 5, Key: "46059"},
	}
	if len(axis) != len(want) {
		t.Fatalf("ReadDateAxis() = %v, want %v", axis, want)
	}
	for i := range want {
		if axis[i] != want[i] {
			t.Errorf("axis[%d] = %+v, want %+v", i, axis[i], want[i])
		}
	}

	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Col != 5 || warnings[0].Kind != models.KindNumber {
		t.Errorf("warning = %+v, want number at column 5", warnings[0])
	}
}

func TestDateAxisFindAndPrevious(t *testing.T) {
	axis := DateAxis{
		{Col: 3, Key: "2026-02-04"},
		{Col: 4, Key: "2026-2-5"},
	}

	if col, ok := axis.Find("2026-02-05"); !ok || col != 4 {
		t.Errorf("Find(2026-02-05) = %d, %v; want 4, true", col, ok)
	}
	if col, ok := axis.Find("2026/2/4"); !ok || col != 3 {
		t.Errorf("Find(2026/2/4) = %d, %v; want 3, true", col, ok)
	}
	if _, ok := axis.Find("2026-02-06"); ok {
		t.Error("Find(2026-02-06) found a column, want none")
	}

	if prev, ok := axis.Previous(4); !ok || prev.Col != 3 {
		t.Errorf("Previous(4) = %+v, %v; want column 3", prev, ok)
	}
	if _, ok := axis.Previous(3); ok {
		t.Error("Previous(3) found a column for the first date")
	}
}
