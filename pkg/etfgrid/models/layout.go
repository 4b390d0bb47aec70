package models

import "fmt"

// Layout holds the fixed coordinates of the document skeleton.
type Layout struct {
	// HeaderRow holds the headerless-section label at FirstDataCol.
	HeaderRow int `yaml:"header_row" json:"header_row"`
	// DateRow is the single date axis shared by every section.
	DateRow int `yaml:"date_row" json:"date_row"`
	// CodeCol holds instrument codes.
	CodeCol int `yaml:"code_col" json:"code_col"`
	// NameCol holds instrument and section names.
	NameCol int `yaml:"name_col" json:"name_col"`
	// FirstDataCol is the first date column.
	FirstDataCol int `yaml:"first_data_col" json:"first_data_col"`
	// FirstDataRow is where the headerless first section starts.
	FirstDataRow int `yaml:"first_data_row" json:"first_data_row"`
	// FirstSectionName names the headerless section when its label cell is blank.
	FirstSectionName string `yaml:"first_section_name" json:"first_section_name"`
}

// DefaultLayout returns the layout of the observed document.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:        1,
		DateRow:          2,
		CodeCol:          1,
		NameCol:          2,
		FirstDataCol:     3,
		FirstDataRow:     3,
		FirstSectionName: "总市值",
	}
}

// Validate checks that the coordinates describe a usable skeleton.
func (l Layout) Validate() error {
	switch {
	case l.HeaderRow < 1 || l.DateRow < 1 || l.CodeCol < 1 || l.NameCol < 1:
		return fmt.Errorf("layout coordinates must be 1-based: %+v", l)
	case l.CodeCol == l.NameCol:
		return fmt.Errorf("code and name columns must differ (both %d)", l.CodeCol)
	case l.FirstDataCol <= l.CodeCol || l.FirstDataCol <= l.NameCol:
		return fmt.Errorf("first data column %d must follow the code and name columns", l.FirstDataCol)
	case l.FirstDataRow <= l.DateRow:
		return fmt.Errorf("first data row %d must follow the date row %d", l.FirstDataRow, l.DateRow)
	}
	return nil
}

// RoleRule assigns Role to a section whose label contains every keyword of
// at least one group in Match.
type RoleRule struct {
	Role  Role       `yaml:"role" json:"role"`
	Match [][]string `yaml:"match" json:"match"`
}

// KeywordTable drives structural inference: which rows open sections, what
// role each section plays, and which rows are aggregates.
type KeywordTable struct {
	// Headers are the tag words that mark a section header row.
	Headers []string `yaml:"headers" json:"headers"`
	// Roles are tried in order; the first matching rule wins.
	Roles []RoleRule `yaml:"roles" json:"roles"`
	// Aggregates mark sum-of-all-instruments rows by name.
	Aggregates []string `yaml:"aggregates" json:"aggregates"`
}

// DefaultKeywords returns the keyword table of the observed document, with
// English equivalents of each tag word.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		Headers: []string{
			"市值", "份额", "变动", "申赎", "比例", "涨跌幅",
			"market value", "share", "change", "subscription", "redemption",
			"ratio", "percent", "unit price",
		},
		Roles: []RoleRule{
			{Role: RolePriceChangePercent, Match: [][]string{{"涨跌幅"}, {"price change"}, {"percent change"}}},
			{Role: RoleChangeRatio, Match: [][]string{{"比例"}, {"ratio"}}},
			{Role: RoleSubscriptionRedemption, Match: [][]string{{"申赎"}, {"subscription"}, {"redemption"}}},
			{Role: RoleMarketValueChange, Match: [][]string{{"市值", "变动"}, {"market value", "change"}}},
			{Role: RoleShareChange, Match: [][]string{{"份额", "变动"}, {"share", "change"}}},
			{Role: RoleRawUnitPrice, Match: [][]string{{"单位市值"}, {"unit", "market value"}, {"unit price"}}},
			{Role: RoleShareCount, Match: [][]string{{"份额"}, {"share"}}},
			{Role: RoleRawMarketValue, Match: [][]string{{"市值"}, {"market value"}}},
		},
		Aggregates: []string{"总计", "合计", "总和", "total", "subtotal", "sum"},
	}
}
