package models

import (
	"errors"
	"fmt"
)

// ErrLayout is matched by every LayoutError through errors.Is.
var ErrLayout = errors.New("unrecognized document layout")

// ErrUnresolvable is matched by every UnresolvableCellError through errors.Is.
var ErrUnresolvable = errors.New("unresolvable cell")

// ErrMissingInstrumentRow is matched by every MissingInstrumentRowError through errors.Is.
var ErrMissingInstrumentRow = errors.New("missing instrument row")

// LayoutError reports that the grid structure could not be inferred. It is
// fatal to extraction.
type LayoutError struct {
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout error: %s", e.Reason)
}

func (e *LayoutError) Is(target error) bool { return target == ErrLayout }

// UnresolvableCellError reports a formula or date cell that could not be
// resolved. The affected cell is dropped; the run continues.
type UnresolvableCellError struct {
	Row     int
	Col     int
	Formula string
	Err     error
}

func (e *UnresolvableCellError) Error() string {
	if e.Formula != "" {
		return fmt.Sprintf("cell R%dC%d: cannot resolve %q: %v", e.Row, e.Col, e.Formula, e.Err)
	}
	return fmt.Sprintf("cell R%dC%d: cannot resolve: %v", e.Row, e.Col, e.Err)
}

func (e *UnresolvableCellError) Unwrap() error { return e.Err }

func (e *UnresolvableCellError) Is(target error) bool { return target == ErrUnresolvable }

// MissingInstrumentRowError reports an instrument code with no row in a
// section the writer targets. The write is skipped for that section.
type MissingInstrumentRowError struct {
	Code    string
	Section string
}

func (e *MissingInstrumentRowError) Error() string {
	return fmt.Sprintf("instrument %q has no row in section %q", e.Code, e.Section)
}

func (e *MissingInstrumentRowError) Is(target error) bool { return target == ErrMissingInstrumentRow }

// DateNormalizationWarning records a date axis cell whose type was
// unexpected and was stringified as a fallback.
type DateNormalizationWarning struct {
	Col  int
	Kind Kind
	Key  string
}

func (w DateNormalizationWarning) String() string {
	return fmt.Sprintf("date cell in column %d has kind %s; using %q", w.Col, w.Kind, w.Key)
}
