package grid

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// isBuiltInDateFormat reports whether a built-in number format id renders a date.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format code renders a date.
// Quoted literals, escaped characters and bracketed sections are ignored.
func isDateFormatCode(code string) bool {
	if code == "" {
		return false
	}
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "ydm") && !strings.ContainsAny(b.String(), "#0?")
}

// isDateCell reports whether the style of cell renders its number as a date.
func (w *Workbook) isDateCell(cell string) bool {
	id, err := w.file.GetCellStyle(w.sheet, cell)
	if err != nil {
		return false
	}
	return w.isDateStyle(id)
}

func (w *Workbook) isDateStyle(id int) bool {
	if isDate, ok := w.styles[id]; ok {
		return isDate
	}
	isDate := false
	if style, err := w.file.GetStyle(id); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isBuiltInDateFormat(style.NumFmt)
		}
	}
	w.styles[id] = isDate
	return isDate
}

// applyDateStyle gives (row, col) a date number format before a date is
// written. An existing date style on the cell is kept; otherwise the style
// of the left neighbor is reused when it is a date style, so appended date
// columns look like their predecessors.
func (w *Workbook) applyDateStyle(row, col int) error {
	name := CellName(row, col)
	if w.isDateCell(name) {
		return nil
	}
	if col > 1 {
		left := CellName(row, col-1)
		if id, err := w.file.GetCellStyle(w.sheet, left); err == nil && id != 0 && w.isDateStyle(id) {
			return w.file.SetCellStyle(w.sheet, name, name, id)
		}
	}
	if w.dateStyle < 0 {
		id, err := w.file.NewStyle(&excelize.Style{NumFmt: 14})
		if err != nil {
			return err
		}
		w.dateStyle = id
		w.styles[id] = true
	}
	return w.file.SetCellStyle(w.sheet, name, name, w.dateStyle)
}
