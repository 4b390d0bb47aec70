package etfgrid

import (
	"errors"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/parser"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrLayout matches every LayoutError.
var ErrLayout = models.ErrLayout

// ErrInvalidDate indicates a date that is not a calendar day.
var ErrInvalidDate = parser.ErrInvalidDate

// LayoutError reports that the document structure could not be inferred.
// It aborts extraction before any record is produced.
type LayoutError = models.LayoutError

// UnresolvableCellError reports a formula or date cell that could not be
// resolved. The affected cell is dropped.
type UnresolvableCellError = models.UnresolvableCellError

// MissingInstrumentRowError reports an instrument without a row in a section
// the writer targets. The write is skipped and logged.
type MissingInstrumentRowError = models.MissingInstrumentRowError

// DateNormalizationWarning records a date cell that was stringified.
type DateNormalizationWarning = models.DateNormalizationWarning
