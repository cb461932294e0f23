// Package costing holds the pure cost-aggregation engine. Nothing in here
// touches the database: callers load the part tree, run the aggregators, and
// persist the rewritten cached totals in the same transaction.
//
// Cascade order: discount is taken off the parts subtotal first, margin is
// applied to the discounted amount, VAT is applied last to the after-margin
// amount. Every intermediate amount is rounded half-up to 2 decimal places.
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tooldesk/quoteflow/internal/models"
)

var hundred = decimal.NewFromInt(100)

// OperationCost prices one machine-time line: hourly rate x estimated hours,
// rounded half-up to 2 decimals. Negative rate or hours is rejected.
func OperationCost(rate, hours decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("operation hourly rate must not be negative: %w", models.ErrValidation)
	}
	if hours.IsNegative() {
		return decimal.Zero, fmt.Errorf("operation hours must not be negative: %w", models.ErrValidation)
	}
	return rate.Mul(hours).Round(2), nil
}

// ValidatePercent checks a header percentage against [0,100].
func ValidatePercent(name string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return fmt.Errorf("%s must be between 0 and 100: %w", name, models.ErrValidation)
	}
	return nil
}

// AggregatePart recomputes the four derived fields of p from its operations,
// auxiliary lines, material cost and quantity:
//
//	unit_operations_cost = sum(op.cost)
//	unit_auxiliary_cost  = sum(aux.amount)
//	unit_total_cost      = material + operations + auxiliary
//	subtotal             = unit_total_cost x quantity
//
// Operation costs are recomputed from their snapshotted rates on the way.
// Quantity below 1 and negative amounts are rejected; p is left untouched on
// error.
func AggregatePart(p *models.Part) error {
	if p.Quantity < 1 {
		return fmt.Errorf("part %q quantity must be at least 1: %w", p.PartNumber, models.ErrValidation)
	}
	if p.MaterialCost.IsNegative() {
		return fmt.Errorf("part %q material cost must not be negative: %w", p.PartNumber, models.ErrValidation)
	}
	opsCost := decimal.Zero
	for i := range p.Operations {
		op := &p.Operations[i]
		cost, err := OperationCost(op.HourlyRate, op.Hours)
		if err != nil {
			return fmt.Errorf("part %q: %w", p.PartNumber, err)
		}
		op.Cost = cost
		opsCost = opsCost.Add(cost)
	}
	auxCost := decimal.Zero
	for i := range p.AuxiliaryLines {
		line := &p.AuxiliaryLines[i]
		if line.Amount.IsNegative() {
			return fmt.Errorf("part %q auxiliary amount must not be negative: %w", p.PartNumber, models.ErrValidation)
		}
		auxCost = auxCost.Add(line.Amount.Round(2))
	}
	p.UnitOperationsCost = opsCost.Round(2)
	p.UnitAuxiliaryCost = auxCost.Round(2)
	p.UnitTotalCost = p.MaterialCost.Add(p.UnitOperationsCost).Add(p.UnitAuxiliaryCost).Round(2)
	p.Subtotal = p.UnitTotalCost.Mul(decimal.NewFromInt(int64(p.Quantity))).Round(2)
	return nil
}

// AggregateQuotation recomputes the cached header totals from the current part
// subtotals and the header percentages. It is idempotent: running it twice on
// unchanged inputs yields identical totals. Part subtotals are taken as-is;
// run AggregatePart first (or use Recalculate) when the tree changed.
func AggregateQuotation(q *models.Quotation) error {
	if err := ValidatePercent("discount_percent", q.DiscountPercent); err != nil {
		return err
	}
	if err := ValidatePercent("margin_percent", q.MarginPercent); err != nil {
		return err
	}
	if err := ValidatePercent("vat_percent", q.VATPercent); err != nil {
		return err
	}
	total := decimal.Zero
	for i := range q.Parts {
		total = total.Add(q.Parts[i].Subtotal)
	}
	q.TotalPartsCost = total.Round(2)
	// Extension point: non-part cost lines would be added here.
	q.Subtotal = q.TotalPartsCost
	q.DiscountAmount = q.Subtotal.Mul(q.DiscountPercent).Div(hundred).Round(2)
	discounted := q.Subtotal.Sub(q.DiscountAmount)
	q.MarginAmount = discounted.Mul(q.MarginPercent).Div(hundred).Round(2)
	afterMargin := discounted.Add(q.MarginAmount)
	q.VATAmount = afterMargin.Mul(q.VATPercent).Div(hundred).Round(2)
	q.TotalValue = afterMargin.Add(q.VATAmount).Round(2)
	return nil
}

// Recalculate runs the part aggregator over every part and then the quotation
// aggregator, bottom-up. This is what services call inside a transaction after
// any structural or header change.
func Recalculate(q *models.Quotation) error {
	for i := range q.Parts {
		if err := AggregatePart(&q.Parts[i]); err != nil {
			return err
		}
	}
	return AggregateQuotation(q)
}
