package models

// Quote is the raw market data for one instrument on one day.
type Quote struct {
	Code        string  `json:"code" yaml:"code"`
	Date        string  `json:"date" yaml:"date"`
	MarketValue float64 `json:"market_value" yaml:"market_value"`
	UnitPrice   float64 `json:"unit_price" yaml:"unit_price"`
}
