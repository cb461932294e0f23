package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// PDF renders the quotation document. Layout only; every figure comes from
// the resolved read model.
func PDF(doc *ResolvedQuotation) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(10).
		WithTopMargin(12).
		WithRightMargin(10).
		Build()
	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(8, "Quotation "+doc.Number, props.Text{Size: 15, Style: fontstyle.Bold}),
		text.NewCol(4, doc.QuoteDate.Format("2006-01-02"), props.Text{Size: 10, Align: align.Right, Top: 3}),
	)
	m.AddRow(6,
		text.NewCol(8, doc.Customer.Name, props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(4, "Status: "+string(doc.Status), props.Text{Size: 9, Align: align.Right}),
	)
	address := doc.Customer.AddressLine1
	if doc.Customer.City != "" {
		address += ", " + doc.Customer.PostalCode + " " + doc.Customer.City
	}
	if doc.Customer.Country != "" {
		address += ", " + doc.Customer.Country
	}
	m.AddRow(5, text.NewCol(12, address, props.Text{Size: 9}))
	m.AddRow(5, text.NewCol(12,
		fmt.Sprintf("Lead time: %d days  |  Payment: %s  |  Shipment: %s  |  Currency: %s",
			doc.LeadTimeDays, doc.PaymentTerms, doc.ShipmentType, doc.Currency),
		props.Text{Size: 8}))
	m.AddRow(4, col.New(12))

	headerStyle := props.Text{Size: 9, Style: fontstyle.Bold}
	cellStyle := props.Text{Size: 8}
	rightCell := props.Text{Size: 8, Align: align.Right}

	m.AddRow(6,
		text.NewCol(2, "Part", headerStyle),
		text.NewCol(4, "Description", headerStyle),
		text.NewCol(1, "Qty", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Unit cost", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(3, "Subtotal", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	for _, p := range doc.Parts {
		m.AddRow(5,
			text.NewCol(2, p.PartNumber, cellStyle),
			text.NewCol(4, p.Description, cellStyle),
			text.NewCol(1, fmt.Sprintf("%d", p.Quantity), rightCell),
			text.NewCol(2, p.UnitTotalCost.StringFixed(2), rightCell),
			text.NewCol(3, p.Subtotal.StringFixed(2), rightCell),
		)
		for _, op := range p.Operations {
			m.AddRow(4,
				text.NewCol(2, "", cellStyle),
				text.NewCol(6, fmt.Sprintf("%s  (%s h @ %s/h)", op.MachineName, op.Hours.String(), op.HourlyRate.StringFixed(2)), props.Text{Size: 7}),
				text.NewCol(4, op.Cost.StringFixed(2), props.Text{Size: 7, Align: align.Right}),
			)
		}
		for _, al := range p.AuxiliaryLines {
			m.AddRow(4,
				text.NewCol(2, "", cellStyle),
				text.NewCol(6, al.TypeName, props.Text{Size: 7}),
				text.NewCol(4, al.Amount.StringFixed(2), props.Text{Size: 7, Align: align.Right}),
			)
		}
	}

	m.AddRow(4, col.New(12))
	totals := []struct {
		label string
		value string
	}{
		{"Parts cost", doc.TotalPartsCost.StringFixed(2)},
		{"Subtotal", doc.Subtotal.StringFixed(2)},
		{fmt.Sprintf("Discount (%s%%)", doc.DiscountPercent.String()), "-" + doc.DiscountAmount.StringFixed(2)},
		{fmt.Sprintf("Margin (%s%%)", doc.MarginPercent.String()), doc.MarginAmount.StringFixed(2)},
		{fmt.Sprintf("VAT (%s%%)", doc.VATPercent.String()), doc.VATAmount.StringFixed(2)},
	}
	for _, t := range totals {
		m.AddRows(row.New(5).Add(
			col.New(7),
			text.NewCol(3, t.label, props.Text{Size: 8}),
			text.NewCol(2, t.value, props.Text{Size: 8, Align: align.Right}),
		))
	}
	m.AddRows(row.New(7).Add(
		col.New(7),
		text.NewCol(3, "Total "+doc.Currency, props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(2, doc.TotalValue.StringFixed(2), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	))

	if doc.Notes != "" {
		m.AddRow(4, col.New(12))
		m.AddRow(5, text.NewCol(12, doc.Notes, props.Text{Size: 8}))
	}

	result, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render quotation pdf: %w", err)
	}
	return result.GetBytes(), nil
}
