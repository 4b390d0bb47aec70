package writer

import (
	"fmt"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/parser"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// derivedRoles lists the section roles the recalculator writes, in write order.
var derivedRoles = []models.Role{
	models.RoleShareCount,
	models.RoleShareChange,
	models.RoleSubscriptionRedemption,
	models.RoleChangeRatio,
	models.RoleMarketValueChange,
	models.RolePriceChangePercent,
}

// RecalcReport summarizes one Recalculate run.
type RecalcReport struct {
	// Date is the canonical date recalculated.
	Date string
	// Column is the date column recalculated.
	Column int
	// PreviousColumn is the date column compared against, or 0 for the first date.
	PreviousColumn int
	// Instruments counts instruments with both raw values for the date.
	Instruments int
	// Written counts derived cells written.
	Written int
	// Missing lists derived sections without a row for an instrument.
	Missing []*models.MissingInstrumentRowError
}

// Recalculate computes every derived section for target from the raw market
// value and unit price sections. Raw values for target must already be
// written.
//
// Per instrument present in both raw sections:
//
//	share_count            = market_value / unit_price (0 when unit_price is 0)
//	share_change           = share_count - previous share_count
//	subscription_redemption = share_change
//	change_ratio           = share_change / previous share_count * 100
//	market_value_change    = market_value - previous market_value
//	price_change_percent   = (unit_price - previous unit_price) / previous unit_price * 100
//
// Values depending on the previous date column are absent for the first
// column or when the previous cell is empty; ratios are absent when the
// previous value is zero. Absent values leave their cells untouched.
func (w *Writer) Recalculate(g grid.Grid, target string) (RecalcReport, error) {
	report := RecalcReport{Date: parser.CanonicalDateKey(target)}

	sections, err := w.parser.DetectSections(g)
	if err != nil {
		return report, err
	}
	mvSections := parser.SectionsWithRole(sections, models.RoleRawMarketValue)
	upSections := parser.SectionsWithRole(sections, models.RoleRawUnitPrice)
	if len(mvSections) == 0 || len(upSections) == 0 {
		return report, &models.LayoutError{Reason: "recalculation needs a raw market value and a raw unit price section"}
	}
	mvSection, upSection := mvSections[0], upSections[0]
	shareSections := parser.SectionsWithRole(sections, models.RoleShareCount)

	axis, _ := w.parser.ReadDateAxis(g)
	col, ok := axis.Find(target)
	if !ok {
		return report, fmt.Errorf("no date column for %s; write raw values first", report.Date)
	}
	report.Column = col
	prev, hasPrev := axis.Previous(col)
	if hasPrev {
		report.PreviousColumn = prev.Col
	}

	for row := mvSection.DataRowStart; row <= mvSection.DataRowEnd; row++ {
		code, name := w.parser.RowLabels(g, row)
		if code == "" || w.parser.Matcher().IsAggregate(name) {
			continue
		}
		mv, ok := w.number(g, row, col)
		if !ok {
			continue
		}
		upRow, ok := w.parser.FindRow(g, upSection, code)
		if !ok {
			report.Missing = append(report.Missing, w.missing(code, upSection))
			continue
		}
		up, ok := w.number(g, upRow, col)
		if !ok {
			continue
		}
		report.Instruments++

		obs := observation{marketValue: mv, unitPrice: up}
		if hasPrev {
			obs.prevMarketValue, obs.hasPrevMarketValue = w.number(g, row, prev.Col)
			obs.prevUnitPrice, obs.hasPrevUnitPrice = w.number(g, upRow, prev.Col)
			if len(shareSections) > 0 {
				if shareRow, ok := w.parser.FindRow(g, shareSections[0], code); ok {
					obs.prevShareCount, obs.hasPrevShareCount = w.number(g, shareRow, prev.Col)
				}
			} else if obs.hasPrevMarketValue && obs.hasPrevUnitPrice {
				obs.prevShareCount, obs.hasPrevShareCount = shareCount(obs.prevMarketValue, obs.prevUnitPrice), true
			}
		}

		values := obs.derive()
		for _, role := range derivedRoles {
			value, ok := values[role]
			if !ok {
				continue
			}
			for _, s := range parser.SectionsWithRole(sections, role) {
				targetRow, ok := w.parser.FindRow(g, s, code)
				if !ok {
					report.Missing = append(report.Missing, w.missing(code, s))
					continue
				}
				if err := g.SetCell(targetRow, col, models.Number(value.InexactFloat64())); err != nil {
					return report, fmt.Errorf("failed to write %s for %s: %w", s.Name, code, err)
				}
				report.Written++
			}
		}
	}

	w.logger.Info("Recalculated derived sections",
		zap.String("date", report.Date),
		zap.Int("instruments", report.Instruments),
		zap.Int("written", report.Written),
		zap.Int("missing", len(report.Missing)))
	return report, nil
}

func (w *Writer) number(g grid.Grid, row, col int) (decimal.Decimal, bool) {
	n, err := parser.ResolveNumber(g, row, col)
	if err != nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(n), true
}

// observation holds the raw inputs of one instrument for the target date
// and, when present, the previous date column.
type observation struct {
	marketValue, unitPrice decimal.Decimal

	prevMarketValue, prevUnitPrice, prevShareCount          decimal.Decimal
	hasPrevMarketValue, hasPrevUnitPrice, hasPrevShareCount bool
}

func shareCount(marketValue, unitPrice decimal.Decimal) decimal.Decimal {
	if unitPrice.IsZero() {
		return decimal.Zero
	}
	return marketValue.Div(unitPrice)
}

func (o observation) derive() map[models.Role]decimal.Decimal {
	shares := shareCount(o.marketValue, o.unitPrice)
	values := map[models.Role]decimal.Decimal{
		models.RoleShareCount: shares,
	}
	if o.hasPrevShareCount {
		change := shares.Sub(o.prevShareCount)
		values[models.RoleShareChange] = change
		values[models.RoleSubscriptionRedemption] = change
		if !o.prevShareCount.IsZero() {
			values[models.RoleChangeRatio] = change.Mul(hundred).Div(o.prevShareCount)
		}
	}
	if o.hasPrevMarketValue {
		values[models.RoleMarketValueChange] = o.marketValue.Sub(o.prevMarketValue)
	}
	if o.hasPrevUnitPrice && !o.prevUnitPrice.IsZero() {
		values[models.RolePriceChangePercent] = o.unitPrice.Sub(o.prevUnitPrice).Mul(hundred).Div(o.prevUnitPrice)
	}
	return values
}
