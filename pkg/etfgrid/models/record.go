package models

import "time"

// AggregateCode is the instrument code given to aggregate rows.
const AggregateCode = "ALL"

// DateLayout is the canonical date key layout.
const DateLayout = "2006-01-02"

// Record is one long-format observation extracted from the grid.
type Record struct {
	// Code is the instrument code, or AggregateCode for aggregate rows.
	Code string `json:"code"`
	// Name is the row display name.
	Name string `json:"name"`
	// Date is the trading day at UTC midnight.
	Date time.Time `json:"date"`
	// MetricType is the name of the section the value came from.
	MetricType string `json:"metric_type"`
	// Value is the resolved numeric cell value.
	Value float64 `json:"value"`
	// IsAggregate marks sum-of-all-instruments rows.
	IsAggregate bool `json:"is_aggregate"`
}

// DateKey returns the record date in canonical YYYY-MM-DD form.
func (r Record) DateKey() string { return r.Date.Format(DateLayout) }
