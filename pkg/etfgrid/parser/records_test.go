package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
)

func TestExtract(t *testing.T) {
	p := newTestParser()

	got, stats, err := p.Extract(sampleGrid(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	d1, d2 := day(2026, 2, 4), day(2026, 2, 5)
	want := []models.Record{
		{Code: "510300", Name: "沪深300ETF", Date: d1, MetricType: "总市值", Value: 100},
		{Code: "510300", Name: "沪深300ETF", Date: d2, MetricType: "总市值", Value: 110},
		{Code: "510500", Name: "中证500ETF", Date: d1, MetricType: "总市值", Value: 50},
		{Code: "510500", Name: "中证500ETF", Date: d2, MetricType: "总市值", Value: 60},
		{Code: "ALL", Name: "合计", Date: d1, MetricType: "总市值", Value: 150, IsAggregate: true},
		{Code: "ALL", Name: "合计", Date: d2, MetricType: "总市值", Value: 170, IsAggregate: true},
		{Code: "510300", Date: d1, MetricType: "单位市值", Value: 2},
		{Code: "510300", Date: d2, MetricType: "单位市值", Value: 2.2},
		{Code: "510500", Date: d1, MetricType: "单位市值", Value: 1},
		{Code: "510500", Date: d2, MetricType: "单位市值", Value: 1.2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}

	wantPerMetric := map[string]int{"总市值": 6, "单位市值": 4}
	if diff := cmp.Diff(wantPerMetric, stats.PerMetric); diff != "" {
		t.Errorf("PerMetric mismatch (-want +got):\n%s", diff)
	}
	if stats.Records != len(want) {
		t.Errorf("stats.Records = %d, want %d", stats.Records, len(want))
	}
}

func TestExtractAggregateRow(t *testing.T) {
	g := newGrid(t, map[string]models.Value{
		"C2": models.Text("2026-02-05"),
		"A3": models.Text("X"), "C3": models.Number(1),
		"A4": models.Text("Y"), "C4": models.Number(2),
		"A5": models.Text("Z"), "C5": models.Number(3),
		"B9":  models.Text("Market Value"),
		"B10": models.Text("Total"), "C10": models.Formula("=SUM(C3:C5)"),
	})

	got, _, err := newTestParser().Extract(g)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	var aggregates []models.Record
	for _, r := range got {
		if r.IsAggregate {
			aggregates = append(aggregates, r)
		}
	}
	want := []models.Record{{
		Code: "ALL", Name: "Total", Date: day(2026, 2, 5), MetricType: "Market Value", Value: 6, IsAggregate: true,
	}}
	if diff := cmp.Diff(want, aggregates); diff != "" {
		t.Errorf("aggregate records mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractDropsBadCells(t *testing.T) {
	g := newGrid(t, map[string]models.Value{
		"C2": models.Text("2026-02-05"),
		"D2": models.Text("not a date"),
		"E2": models.Text("2026-02-06"),
		"A3": models.Text("X"),
		"C3": models.Formula("AVERAGE(D3:E3)"),
		"D3": models.Number(5),
		"E3": models.Text("-"),
		"A4": models.Text("Y"),
		"C4": models.Text("12.5"),
		"E4": models.FormulaWithCache("NOW()", 8),
	})

	got, stats, err := newTestParser().Extract(g)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []models.Record{
		{Code: "Y", Date: day(2026, 2, 5), MetricType: "总市值", Value: 12.5},
		{Code: "Y", Date: day(2026, 2, 6), MetricType: "总市值", Value: 8},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
	if stats.Unresolved != 1 {
		t.Errorf("stats.Unresolved = %d, want 1", stats.Unresolved)
	}
	if stats.BadDates != 1 {
		t.Errorf("stats.BadDates = %d, want 1", stats.BadDates)
	}
}

func TestExtractLayoutErrorProducesNoRecords(t *testing.T) {
	g := newGrid(t, map[string]models.Value{"C2": models.Text("2026-02-05")})

	records, _, err := newTestParser().Extract(g)
	if !errors.Is(err, models.ErrLayout) {
		t.Fatalf("Extract() error = %v, want ErrLayout", err)
	}
	if records != nil {
		t.Errorf("Extract() returned %d records alongside a layout error", len(records))
	}
}
