// Package models defines data structures shared by the grid, parser and writer packages.
package models

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindEmpty is a blank cell.
	KindEmpty Kind = iota
	// KindNumber is a numeric literal.
	KindNumber
	// KindText is a string literal.
	KindText
	// KindDate is a calendar date or datetime.
	KindDate
	// KindFormula is a formula, optionally carrying a cached result.
	KindFormula
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindFormula:
		return "formula"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is the content of one grid cell. The zero Value is Empty.
type Value struct {
	kind      Kind
	num       float64
	text      string
	date      time.Time
	hasCached bool
}

// Empty returns a blank cell value.
func Empty() Value { return Value{} }

// Number returns a numeric cell value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a string cell value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Date returns a date cell value.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// Formula returns a formula cell value without a cached result.
func Formula(expr string) Value { return Value{kind: KindFormula, text: strings.TrimPrefix(expr, "=")} }

// FormulaWithCache returns a formula cell value with the result last computed
// by the authoring application.
func FormulaWithCache(expr string, cached float64) Value {
	return Value{kind: KindFormula, text: strings.TrimPrefix(expr, "="), num: cached, hasCached: true}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is a blank cell. Whitespace-only text counts as blank.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindEmpty:
		return true
	case KindText:
		return isBlank(v.text)
	}
	return false
}

// Number returns the numeric literal and whether v is a Number.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the string literal and whether v is Text.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Date returns the date and whether v is a Date.
func (v Value) Date() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// Formula returns the formula text, without the leading "=", and whether v is a Formula.
func (v Value) Formula() (string, bool) {
	if v.kind != KindFormula {
		return "", false
	}
	return v.text, true
}

// Cached returns the cached result of a formula, if one is present.
func (v Value) Cached() (float64, bool) {
	if v.kind != KindFormula || !v.hasCached {
		return 0, false
	}
	return v.num, true
}

// String renders v for logs and best-effort fallbacks.
func (v Value) String() string {
	switch v.kind {
	case KindEmpty:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(time.DateTime)
	case KindFormula:
		return "=" + v.text
	}
	return ""
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' && r != '　' {
			return false
		}
	}
	return true
}
