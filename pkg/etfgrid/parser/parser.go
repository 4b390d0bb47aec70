// Package parser infers the section structure of a grid and converts it into
// long-format records.
package parser

import (
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"go.uber.org/zap"
)

// Parser reads grids laid out according to a Layout and a KeywordTable.
type Parser struct {
	layout models.Layout
	match  *Matcher
	logger *zap.Logger
}

// New returns a Parser. A nil logger discards log output.
func New(layout models.Layout, keywords models.KeywordTable, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		layout: layout,
		match:  NewMatcher(keywords),
		logger: logger,
	}
}

// Layout returns the document skeleton the parser assumes.
func (p *Parser) Layout() models.Layout { return p.layout }

// Matcher returns the compiled keyword table.
func (p *Parser) Matcher() *Matcher { return p.match }
