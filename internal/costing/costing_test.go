package costing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tooldesk/quoteflow/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func samplePart() models.Part {
	return models.Part{
		PartNumber:   "P-100",
		MaterialCost: dec("100"),
		Quantity:     2,
		Operations: []models.Operation{
			{MachineName: "CNC Mill", HourlyRate: dec("50"), Hours: dec("2")},
		},
		AuxiliaryLines: []models.AuxiliaryCostLine{
			{TypeName: "Setup", Amount: dec("20")},
		},
	}
}

func TestOperationCostRounding(t *testing.T) {
	cases := []struct {
		rate, hours, want string
	}{
		{"50", "2", "100"},
		{"33.33", "1.5", "50"},      // 49.995 rounds half-up
		{"10.01", "0.125", "1.25"},  // 1.25125
		{"0", "4", "0"},
		{"72.4", "0.007", "0.51"},   // 0.5068
	}
	for _, c := range cases {
		got, err := OperationCost(dec(c.rate), dec(c.hours))
		if err != nil {
			t.Fatalf("OperationCost(%s,%s): %v", c.rate, c.hours, err)
		}
		if !got.Equal(dec(c.want)) {
			t.Fatalf("OperationCost(%s,%s) = %s want %s", c.rate, c.hours, got, c.want)
		}
	}
}

func TestOperationCostRejectsNegative(t *testing.T) {
	if _, err := OperationCost(dec("-1"), dec("2")); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("negative rate: got %v want ErrValidation", err)
	}
	if _, err := OperationCost(dec("10"), dec("-0.5")); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("negative hours: got %v want ErrValidation", err)
	}
}

func TestAggregatePart(t *testing.T) {
	p := samplePart()
	if err := AggregatePart(&p); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !p.UnitOperationsCost.Equal(dec("100")) {
		t.Fatalf("unit operations cost = %s want 100", p.UnitOperationsCost)
	}
	if !p.UnitAuxiliaryCost.Equal(dec("20")) {
		t.Fatalf("unit auxiliary cost = %s want 20", p.UnitAuxiliaryCost)
	}
	if !p.UnitTotalCost.Equal(dec("220")) {
		t.Fatalf("unit total cost = %s want 220", p.UnitTotalCost)
	}
	if !p.Subtotal.Equal(dec("440")) {
		t.Fatalf("subtotal = %s want 440", p.Subtotal)
	}
	if !p.Operations[0].Cost.Equal(dec("100")) {
		t.Fatalf("operation cost = %s want 100", p.Operations[0].Cost)
	}
}

func TestAggregatePartNoLines(t *testing.T) {
	p := models.Part{PartNumber: "P-1", MaterialCost: dec("12.50"), Quantity: 3}
	if err := AggregatePart(&p); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !p.Subtotal.Equal(dec("37.50")) {
		t.Fatalf("subtotal = %s want 37.50", p.Subtotal)
	}
	if !p.UnitOperationsCost.IsZero() || !p.UnitAuxiliaryCost.IsZero() {
		t.Fatalf("expected zero derived line costs, got %s / %s", p.UnitOperationsCost, p.UnitAuxiliaryCost)
	}
}

func TestAggregatePartRejectsBadQuantity(t *testing.T) {
	for _, qty := range []int{0, -2} {
		p := samplePart()
		p.Quantity = qty
		if err := AggregatePart(&p); !errors.Is(err, models.ErrValidation) {
			t.Fatalf("quantity %d: got %v want ErrValidation", qty, err)
		}
	}
}

func TestAggregateQuotationCascade(t *testing.T) {
	// Worked example: one part (material 100, qty 2, one operation 50/hr x 2hr,
	// one auxiliary line 20), discount 10%, margin 15%, VAT 12%.
	q := models.Quotation{
		DiscountPercent: dec("10"),
		MarginPercent:   dec("15"),
		VATPercent:      dec("12"),
		Parts:           []models.Part{samplePart()},
	}
	if err := Recalculate(&q); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"total_parts_cost", q.TotalPartsCost, "440"},
		{"subtotal", q.Subtotal, "440"},
		{"discount_amount", q.DiscountAmount, "44"},
		{"margin_amount", q.MarginAmount, "59.40"},
		{"vat_amount", q.VATAmount, "54.65"},
		{"total_value", q.TotalValue, "510.05"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Fatalf("%s = %s want %s", c.name, c.got, c.want)
		}
	}
}

func TestAggregateQuotationIdempotent(t *testing.T) {
	q := models.Quotation{
		DiscountPercent: dec("7.5"),
		MarginPercent:   dec("22"),
		VATPercent:      dec("19"),
		Parts:           []models.Part{samplePart(), {PartNumber: "P-2", MaterialCost: dec("3.33"), Quantity: 7}},
	}
	if err := Recalculate(&q); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := q.TotalValue
	if err := Recalculate(&q); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !q.TotalValue.Equal(first) {
		t.Fatalf("aggregator not idempotent: %s then %s", first, q.TotalValue)
	}
}

func TestAggregateQuotationDelta(t *testing.T) {
	other := models.Part{PartNumber: "P-9", MaterialCost: dec("500"), Quantity: 1}
	q := models.Quotation{Parts: []models.Part{samplePart(), other}}
	if err := Recalculate(&q); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	before := q.TotalValue
	otherBefore := q.Parts[1].Subtotal

	// One more hour on the first part's operation: +50 per unit, qty 2 => +100.
	q.Parts[0].Operations[0].Hours = dec("3")
	if err := Recalculate(&q); err != nil {
		t.Fatalf("recalculate after edit: %v", err)
	}
	if got := q.TotalValue.Sub(before); !got.Equal(dec("100")) {
		t.Fatalf("total delta = %s want 100", got)
	}
	if !q.Parts[1].Subtotal.Equal(otherBefore) {
		t.Fatalf("unrelated part subtotal changed: %s -> %s", otherBefore, q.Parts[1].Subtotal)
	}
}

func TestAggregateQuotationZeroPercents(t *testing.T) {
	q := models.Quotation{Parts: []models.Part{samplePart()}}
	if err := Recalculate(&q); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if !q.TotalValue.Equal(dec("440")) {
		t.Fatalf("total = %s want 440", q.TotalValue)
	}
	if !q.DiscountAmount.IsZero() || !q.MarginAmount.IsZero() || !q.VATAmount.IsZero() {
		t.Fatalf("expected zero cascade amounts")
	}
}

func TestAggregateQuotationRejectsBadPercent(t *testing.T) {
	for _, pct := range []string{"-1", "100.01", "250"} {
		q := models.Quotation{VATPercent: dec(pct)}
		if err := AggregateQuotation(&q); !errors.Is(err, models.ErrValidation) {
			t.Fatalf("vat %s: got %v want ErrValidation", pct, err)
		}
	}
}
