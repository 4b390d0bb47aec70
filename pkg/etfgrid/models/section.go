package models

import "fmt"

// Role classifies what a section holds and how the writer treats it.
type Role int

const (
	// RoleOther is a section the engine reads but never writes.
	RoleOther Role = iota
	// RoleRawMarketValue holds externally sourced market values.
	RoleRawMarketValue
	// RoleRawUnitPrice holds externally sourced unit prices.
	RoleRawUnitPrice
	// RoleShareCount is market value divided by unit price.
	RoleShareCount
	// RoleShareChange is the day-over-day share count delta.
	RoleShareChange
	// RoleSubscriptionRedemption is the net subscription/redemption flow.
	RoleSubscriptionRedemption
	// RoleChangeRatio is the share change as a percentage of the previous share count.
	RoleChangeRatio
	// RolePriceChangePercent is the day-over-day unit price change in percent.
	RolePriceChangePercent
	// RoleMarketValueChange is the day-over-day market value delta.
	RoleMarketValueChange
)

var roleNames = map[Role]string{
	RoleOther:                  "other",
	RoleRawMarketValue:         "raw_market_value",
	RoleRawUnitPrice:           "raw_unit_price",
	RoleShareCount:             "share_count",
	RoleShareChange:            "share_change",
	RoleSubscriptionRedemption: "subscription_redemption",
	RoleChangeRatio:            "change_ratio",
	RolePriceChangePercent:     "price_change_percent",
	RoleMarketValueChange:      "market_value_change",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "other"
}

// ParseRole maps a role name as written by String back to a Role.
func ParseRole(name string) (Role, bool) {
	for r, n := range roleNames {
		if n == name {
			return r, true
		}
	}
	return RoleOther, false
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Section is a contiguous vertical block of the grid holding one metric type.
type Section struct {
	// Name is the section label; it doubles as the record metric type.
	Name string `json:"name"`
	// Role is the classified purpose of the section.
	Role Role `json:"role"`
	// HeaderRow is the row holding the label, or 0 for the headerless first section.
	HeaderRow int `json:"header_row,omitempty"`
	// DataRowStart is the first data row (1-based).
	DataRowStart int `json:"data_row_start"`
	// DataRowEnd is the last data row (1-based, inclusive).
	DataRowEnd int `json:"data_row_end"`
}

// HasHeader reports whether the section was opened by a header row.
func (s Section) HasHeader() bool { return s.HeaderRow > 0 }

// Rows returns the number of rows in the data range.
func (s Section) Rows() int {
	if s.DataRowEnd < s.DataRowStart {
		return 0
	}
	return s.DataRowEnd - s.DataRowStart + 1
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	role, ok := ParseRole(string(text))
	if !ok {
		return fmt.Errorf("unknown section role %q", text)
	}
	*r = role
	return nil
}
