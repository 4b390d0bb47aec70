package parser

import (
	"strings"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"go.uber.org/zap"
)

// DetectSections scans the grid and returns its sections in row order.
//
// A row is a section header when its code cell is empty and its name cell is
// text containing a header keyword. Each header opens a section that runs up
// to the row before the next header, or to the last row of the grid.
//
// The first block of the document has no header. When the code cell of the
// first data row is filled, a raw market-value section named by the label
// above the date axis starts there and ends before the first blank row or the
// first header.
//
// A grid without any section is a *models.LayoutError.
func (p *Parser) DetectSections(g grid.Grid) ([]models.Section, error) {
	l := p.layout
	maxRow := g.MaxRow()

	var headers []int
	for row := l.FirstDataRow; row <= maxRow; row++ {
		if p.isHeaderRow(g, row) {
			headers = append(headers, row)
		}
	}

	var sections []models.Section
	if !g.Cell(l.FirstDataRow, l.CodeCol).IsEmpty() {
		first, err := p.headerlessSection(g, maxRow)
		if err != nil {
			return nil, err
		}
		sections = append(sections, first)
	}

	for i, header := range headers {
		end := maxRow
		if i+1 < len(headers) {
			end = headers[i+1] - 1
		}
		name := cellText(g, header, l.NameCol)
		sections = append(sections, models.Section{
			Name:         name,
			Role:         p.match.Role(name),
			HeaderRow:    header,
			DataRowStart: header + 1,
			DataRowEnd:   end,
		})
	}

	if len(sections) == 0 {
		return nil, &models.LayoutError{Reason: "no sections found"}
	}
	for _, s := range sections {
		p.logger.Debug("Detected section",
			zap.String("name", s.Name),
			zap.Stringer("role", s.Role),
			zap.Int("start", s.DataRowStart),
			zap.Int("end", s.DataRowEnd))
	}
	return sections, nil
}

func (p *Parser) headerlessSection(g grid.Grid, maxRow int) (models.Section, error) {
	l := p.layout

	name := l.FirstSectionName
	label := g.Cell(l.HeaderRow, l.FirstDataCol)
	switch label.Kind() {
	case models.KindText:
		if s, _ := label.Text(); strings.TrimSpace(s) != "" {
			name = strings.TrimSpace(s)
		}
	case models.KindEmpty:
	case models.KindNumber, models.KindDate, models.KindFormula:
		return models.Section{}, &models.LayoutError{
			Reason: "label cell " + grid.CellName(l.HeaderRow, l.FirstDataCol) + " of the headerless first section holds a " + label.Kind().String() + ", not text",
		}
	}
	if name == "" {
		return models.Section{}, &models.LayoutError{Reason: "headerless first section has no name"}
	}

	end := maxRow
	for row := l.FirstDataRow; row <= maxRow; row++ {
		if p.isBlankRow(g, row) || p.isHeaderRow(g, row) {
			end = row - 1
			break
		}
	}
	return models.Section{
		Name:         name,
		Role:         models.RoleRawMarketValue,
		DataRowStart: l.FirstDataRow,
		DataRowEnd:   end,
	}, nil
}

func (p *Parser) isHeaderRow(g grid.Grid, row int) bool {
	if !g.Cell(row, p.layout.CodeCol).IsEmpty() {
		return false
	}
	name, ok := g.Cell(row, p.layout.NameCol).Text()
	return ok && strings.TrimSpace(name) != "" && p.match.IsHeaderLabel(name)
}

func (p *Parser) isBlankRow(g grid.Grid, row int) bool {
	return g.Cell(row, p.layout.CodeCol).IsEmpty() && g.Cell(row, p.layout.NameCol).IsEmpty()
}

// FindRow returns the first row of s whose code cell equals code.
func (p *Parser) FindRow(g grid.Grid, s models.Section, code string) (int, bool) {
	for row := s.DataRowStart; row <= s.DataRowEnd; row++ {
		if cellText(g, row, p.layout.CodeCol) == code {
			return row, true
		}
	}
	return 0, false
}

// SectionsWithRole filters sections by role, keeping row order.
func SectionsWithRole(sections []models.Section, role models.Role) []models.Section {
	var out []models.Section
	for _, s := range sections {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// RowLabels returns the code and name cells of row as trimmed text.
func (p *Parser) RowLabels(g grid.Grid, row int) (code, name string) {
	return cellText(g, row, p.layout.CodeCol), cellText(g, row, p.layout.NameCol)
}
