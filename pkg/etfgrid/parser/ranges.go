package parser

import (
	"fmt"
	"strings"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/xuri/excelize/v2"
)

// parseCellRef parses an A1-style reference such as C3 or $C$3 into 1-based
// (row, col). Sheet-qualified references are rejected.
func parseCellRef(ref string) (row, col int, err error) {
	if strings.Contains(ref, "!") {
		return 0, 0, fmt.Errorf("cross-sheet reference %q", ref)
	}
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	col, row, err = excelize.CellNameToCoordinates(strings.ToUpper(ref))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	return row, col, nil
}

// parseRangeRef parses a range such as C3:C15 or $A$1:$D$10. A single cell
// reference yields a one-cell range.
func parseRangeRef(ref string) (models.Range, error) {
	parts := strings.Split(ref, ":")
	switch len(parts) {
	case 1:
		row, col, err := parseCellRef(parts[0])
		if err != nil {
			return models.Range{}, err
		}
		return models.Range{R1: row, C1: col, R2: row, C2: col}, nil
	case 2:
		r1, c1, err := parseCellRef(parts[0])
		if err != nil {
			return models.Range{}, err
		}
		r2, c2, err := parseCellRef(parts[1])
		if err != nil {
			return models.Range{}, err
		}
		return models.Range{R1: r1, C1: c1, R2: r2, C2: c2}.Normalize(), nil
	}
	return models.Range{}, fmt.Errorf("invalid range %q", ref)
}
