package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"gopkg.in/yaml.v3"
)

// File is a Source backed by a YAML document:
//
//	quotes:
//	  - code: SH510300
//	    date: 2026-02-05
//	    market_value: 120.5
//	    unit_price: 3.2
//	holidays: [2026-02-16]
//
// Weekends and listed holidays are closed days.
type File struct {
	name     string
	quotes   map[quoteKey]models.Quote
	holidays map[string]bool
}

type quoteKey struct{ code, date string }

type fileDocument struct {
	Quotes   []models.Quote `yaml:"quotes"`
	Holidays []string       `yaml:"holidays"`
}

// LoadFile reads a quote file from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(filepath.Base(path), data)
}

// ParseFile parses a quote document.
func ParseFile(name string, data []byte) (*File, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	f := &File{
		name:     name,
		quotes:   make(map[quoteKey]models.Quote, len(doc.Quotes)),
		holidays: make(map[string]bool, len(doc.Holidays)),
	}
	for i, q := range doc.Quotes {
		if q.Code == "" {
			return nil, fmt.Errorf("%s: quote %d has no code", name, i+1)
		}
		date, _, err := canonicalDate(q.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: quote %d: %w", name, i+1, err)
		}
		q.Date = date
		f.quotes[quoteKey{q.Code, date}] = q
	}
	for _, h := range doc.Holidays {
		date, _, err := canonicalDate(h)
		if err != nil {
			return nil, fmt.Errorf("%s: holiday: %w", name, err)
		}
		f.holidays[date] = true
	}
	return f, nil
}

// Name implements Source.
func (f *File) Name() string { return "file:" + f.name }

// Quote implements Source.
func (f *File) Quote(_ context.Context, code, date string) (models.Quote, error) {
	key, _, err := canonicalDate(date)
	if err != nil {
		return models.Quote{}, err
	}
	q, ok := f.quotes[quoteKey{code, key}]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w for %s on %s", ErrNoQuote, code, key)
	}
	return q, nil
}

// IsTradingDay implements Source.
func (f *File) IsTradingDay(_ context.Context, date string) (bool, error) {
	key, t, err := canonicalDate(date)
	if err != nil {
		return false, err
	}
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, nil
	}
	return !f.holidays[key], nil
}
