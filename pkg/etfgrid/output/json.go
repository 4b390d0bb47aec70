// Package output serializes extraction results.
package output

import (
	"encoding/json"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
)

// recordView is the wire form of a record: the date is a YYYY-MM-DD string.
type recordView struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Date        string  `json:"date"`
	MetricType  string  `json:"metric_type"`
	Value       float64 `json:"value"`
	IsAggregate bool    `json:"is_aggregate"`
}

// ToJSON serializes records to JSON.
func ToJSON(records []models.Record, pretty bool) ([]byte, error) {
	views := make([]recordView, len(records))
	for i, r := range records {
		views[i] = recordView{
			Code:        r.Code,
			Name:        r.Name,
			Date:        r.DateKey(),
			MetricType:  r.MetricType,
			Value:       r.Value,
			IsAggregate: r.IsAggregate,
		}
	}
	return marshal(views, pretty)
}

// LayoutToJSON serializes an inferred workbook layout to JSON.
func LayoutToJSON(layout *models.WorkbookLayout, pretty bool) ([]byte, error) {
	return marshal(layout, pretty)
}

func marshal(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
