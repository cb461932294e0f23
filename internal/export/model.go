// Package export renders fully-resolved quotations. Renderers consume the
// ResolvedQuotation read model verbatim and never re-derive totals; Resolve is
// the only place that maps the persistence model into it.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tooldesk/quoteflow/internal/models"
)

type ResolvedQuotation struct {
	Number       string          `json:"number"`
	Token        string          `json:"token"`
	Status       models.Status   `json:"status"`
	QuoteDate    time.Time       `json:"quote_date"`
	LeadTimeDays int             `json:"lead_time_days"`
	PaymentTerms string          `json:"payment_terms"`
	Currency     string          `json:"currency"`
	ShipmentType string          `json:"shipment_type"`
	Notes        string          `json:"notes,omitempty"`
	CreatedBy    string          `json:"created_by"`
	Customer     ResolvedCustomer `json:"customer"`

	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
	VATPercent      decimal.Decimal `json:"vat_percent"`

	TotalPartsCost decimal.Decimal `json:"total_parts_cost"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	MarginAmount   decimal.Decimal `json:"margin_amount"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	TotalValue     decimal.Decimal `json:"total_value"`

	Parts []ResolvedPart  `json:"parts"`
	Audit []ResolvedAudit `json:"audit"`
}

type ResolvedCustomer struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Email         string `json:"email,omitempty"`
	AddressLine1  string `json:"address_line1,omitempty"`
	AddressLine2  string `json:"address_line2,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
	TaxNumber     string `json:"tax_number,omitempty"`
}

type ResolvedPart struct {
	PartNumber         string          `json:"part_number"`
	Description        string          `json:"description,omitempty"`
	Quantity           int             `json:"quantity"`
	MaterialCost       decimal.Decimal `json:"material_cost"`
	UnitOperationsCost decimal.Decimal `json:"unit_operations_cost"`
	UnitAuxiliaryCost  decimal.Decimal `json:"unit_auxiliary_cost"`
	UnitTotalCost      decimal.Decimal `json:"unit_total_cost"`
	Subtotal           decimal.Decimal `json:"subtotal"`

	Operations     []ResolvedOperation `json:"operations"`
	AuxiliaryLines []ResolvedAuxLine   `json:"auxiliary_lines"`
}

type ResolvedOperation struct {
	MachineName string          `json:"machine_name"`
	Description string          `json:"description,omitempty"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"` // snapshot
	Hours       decimal.Decimal `json:"hours"`
	Cost        decimal.Decimal `json:"cost"`
}

type ResolvedAuxLine struct {
	TypeName    string          `json:"type_name"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type ResolvedAudit struct {
	Action     string        `json:"action"`
	FromStatus models.Status `json:"from_status"`
	ToStatus   models.Status `json:"to_status"`
	Actor      string        `json:"actor"`
	Comment    string        `json:"comment,omitempty"`
	At         time.Time     `json:"at"`
}

// Resolve maps a fully-preloaded quotation and its audit trail into the
// renderer read model. Cached totals are copied, not recomputed.
func Resolve(q *models.Quotation, audits []models.QuotationAudit) *ResolvedQuotation {
	out := &ResolvedQuotation{
		Number:       q.Number,
		Token:        q.Token.String(),
		Status:       q.Status,
		QuoteDate:    q.QuoteDate,
		LeadTimeDays: q.LeadTimeDays,
		PaymentTerms: q.PaymentTerms,
		Currency:     q.Currency,
		ShipmentType: q.ShipmentType,
		Notes:        q.Notes,
		CreatedBy:    q.CreatedBy.DisplayName(),
		Customer: ResolvedCustomer{
			Code:          q.Customer.Code,
			Name:          q.Customer.Name,
			ContactPerson: q.Customer.ContactPerson,
			Email:         q.Customer.Email,
			AddressLine1:  q.Customer.AddressLine1,
			AddressLine2:  q.Customer.AddressLine2,
			PostalCode:    q.Customer.PostalCode,
			City:          q.Customer.City,
			Country:       q.Customer.Country,
			TaxNumber:     q.Customer.TaxNumber,
		},
		DiscountPercent: q.DiscountPercent,
		MarginPercent:   q.MarginPercent,
		VATPercent:      q.VATPercent,
		TotalPartsCost:  q.TotalPartsCost,
		Subtotal:        q.Subtotal,
		DiscountAmount:  q.DiscountAmount,
		MarginAmount:    q.MarginAmount,
		VATAmount:       q.VATAmount,
		TotalValue:      q.TotalValue,
		Parts:           make([]ResolvedPart, 0, len(q.Parts)),
		Audit:           make([]ResolvedAudit, 0, len(audits)),
	}
	for i := range q.Parts {
		p := &q.Parts[i]
		rp := ResolvedPart{
			PartNumber:         p.PartNumber,
			Description:        p.Description,
			Quantity:           p.Quantity,
			MaterialCost:       p.MaterialCost,
			UnitOperationsCost: p.UnitOperationsCost,
			UnitAuxiliaryCost:  p.UnitAuxiliaryCost,
			UnitTotalCost:      p.UnitTotalCost,
			Subtotal:           p.Subtotal,
			Operations:         make([]ResolvedOperation, 0, len(p.Operations)),
			AuxiliaryLines:     make([]ResolvedAuxLine, 0, len(p.AuxiliaryLines)),
		}
		for _, op := range p.Operations {
			rp.Operations = append(rp.Operations, ResolvedOperation{
				MachineName: op.MachineName,
				Description: op.Description,
				HourlyRate:  op.HourlyRate,
				Hours:       op.Hours,
				Cost:        op.Cost,
			})
		}
		for _, al := range p.AuxiliaryLines {
			rp.AuxiliaryLines = append(rp.AuxiliaryLines, ResolvedAuxLine{
				TypeName:    al.TypeName,
				Description: al.Description,
				Amount:      al.Amount,
			})
		}
		out.Parts = append(out.Parts, rp)
	}
	for _, a := range audits {
		out.Audit = append(out.Audit, ResolvedAudit{
			Action:     a.Action,
			FromStatus: a.FromStatus,
			ToStatus:   a.ToStatus,
			Actor:      a.ActorName,
			Comment:    a.Comment,
			At:         a.CreatedAt,
		})
	}
	return out
}
