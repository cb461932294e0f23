package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const sheet = "Quotation"

// Excel renders the quotation as a workbook with one sheet: header block,
// part/line detail, totals block. Figures come straight from the read model.
func Excel(doc *ResolvedQuotation) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	f.SetSheetName("Sheet1", sheet)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("excel style: %w", err)
	}

	set := func(cell string, v any) { _ = f.SetCellValue(sheet, cell, v) }

	set("A1", "Quotation")
	set("B1", doc.Number)
	_ = f.SetCellStyle(sheet, "A1", "B1", bold)
	set("A2", "Customer")
	set("B2", doc.Customer.Name)
	set("A3", "Date")
	set("B3", doc.QuoteDate.Format("2006-01-02"))
	set("A4", "Status")
	set("B4", string(doc.Status))
	set("A5", "Currency")
	set("B5", doc.Currency)
	set("A6", "Lead time (days)")
	set("B6", doc.LeadTimeDays)
	set("A7", "Payment terms")
	set("B7", doc.PaymentTerms)

	r := 9
	for i, h := range []string{"Part", "Description", "Line", "Qty", "Rate/Amount", "Hours", "Cost"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, r)
		set(cell, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(7, r)
	_ = f.SetCellStyle(sheet, first, last, bold)
	r++

	setRow := func(values ...any) {
		for i, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r)
			set(cell, v)
		}
		r++
	}

	for _, p := range doc.Parts {
		setRow(p.PartNumber, p.Description, "material", p.Quantity, mustFloat(p.MaterialCost.StringFixed(2)), nil, mustFloat(p.MaterialCost.StringFixed(2)))
		for _, op := range p.Operations {
			setRow(nil, nil, op.MachineName, nil, mustFloat(op.HourlyRate.StringFixed(2)), mustFloat(op.Hours.String()), mustFloat(op.Cost.StringFixed(2)))
		}
		for _, al := range p.AuxiliaryLines {
			setRow(nil, nil, al.TypeName, nil, mustFloat(al.Amount.StringFixed(2)), nil, mustFloat(al.Amount.StringFixed(2)))
		}
		setRow(nil, nil, "part subtotal", nil, nil, nil, mustFloat(p.Subtotal.StringFixed(2)))
	}

	r++
	totals := []struct {
		label string
		value string
	}{
		{"Parts cost", doc.TotalPartsCost.StringFixed(2)},
		{"Subtotal", doc.Subtotal.StringFixed(2)},
		{"Discount " + doc.DiscountPercent.String() + "%", doc.DiscountAmount.StringFixed(2)},
		{"Margin " + doc.MarginPercent.String() + "%", doc.MarginAmount.StringFixed(2)},
		{"VAT " + doc.VATPercent.String() + "%", doc.VATAmount.StringFixed(2)},
		{"Total " + doc.Currency, doc.TotalValue.StringFixed(2)},
	}
	for _, t := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(6, r)
		valueCell, _ := excelize.CoordinatesToCellName(7, r)
		set(labelCell, t.label)
		set(valueCell, mustFloat(t.value))
		r++
	}
	totalLabel, _ := excelize.CoordinatesToCellName(6, r-1)
	totalValue, _ := excelize.CoordinatesToCellName(7, r-1)
	_ = f.SetCellStyle(sheet, totalLabel, totalValue, bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render quotation excel: %w", err)
	}
	return buf.Bytes(), nil
}

// mustFloat converts a fixed decimal string to float64 for cell values; the
// strings come from decimal.StringFixed and always parse.
func mustFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
