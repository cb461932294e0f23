package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the approval state of a quotation.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusSubmitted          Status = "submitted"
	StatusEngineerApproved   Status = "engineer_approved"
	StatusManagementApproved Status = "management_approved"
	StatusIssued             Status = "issued"
	StatusRejected           Status = "rejected"
)

// Editable reports whether the part tree may still be changed.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusRejected
}

// Terminal reports whether no further workflow action applies. Rejected is not
// terminal: it can be reverted to draft.
func (s Status) Terminal() bool {
	return s == StatusIssued
}

// Quotation header with cached derived totals. The totals are always
// recomputable from the part tree and header percentages; the part tree is the
// source of truth and the aggregator rewrites the cache inside every
// transaction that touches it.
type Quotation struct {
	ID     uint      `gorm:"primaryKey"`
	Number string    `gorm:"size:40;unique;not null"` // Q-<year>-<seq>, generated
	Token  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	CustomerID uint     `gorm:"not null;index"`
	Customer   Customer `gorm:"foreignKey:CustomerID"`

	QuoteDate    time.Time `gorm:"not null"`
	LeadTimeDays int
	PaymentTerms string
	Currency     string `gorm:"size:8;not null;default:'EUR'"`
	ShipmentType string
	Notes        string

	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	MarginPercent   decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	VATPercent      decimal.Decimal `gorm:"type:numeric(5,2);not null"`

	// Derived totals, cache only.
	TotalPartsCost decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	MarginAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	VATAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalValue     decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	Status Status `gorm:"size:32;not null;default:'draft';index"`
	Parts  []Part `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`

	CreatedByID uint `gorm:"not null;index"`
	CreatedBy   User `gorm:"foreignKey:CreatedByID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Part is one priced line item with quantity. The four derived fields are
// rewritten by the part aggregator whenever anything underneath changes.
type Part struct {
	ID          uint `gorm:"primaryKey"`
	QuotationID uint `gorm:"not null;index"`

	PartNumber  string `gorm:"size:60;not null"`
	Description string
	Quantity    int             `gorm:"not null"`
	MaterialCost decimal.Decimal `gorm:"type:numeric(12,2);not null"` // per unit

	// Derived, cache only.
	UnitOperationsCost decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	UnitAuxiliaryCost  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	UnitTotalCost      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	Operations     []Operation         `gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE"`
	AuxiliaryLines []AuxiliaryCostLine `gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Operation is a machine-time cost line. HourlyRate is snapshotted from the
// machine master when the line is created; a priced quotation stays stable
// even if the master rate changes later.
type Operation struct {
	ID     uint `gorm:"primaryKey"`
	PartID uint `gorm:"not null;index"`

	MachineID   uint    `gorm:"not null;index"`
	Machine     Machine `gorm:"foreignKey:MachineID"`
	MachineName string  // snapshot for rendering

	Description string
	HourlyRate  decimal.Decimal `gorm:"type:numeric(12,2);not null"` // snapshot
	Hours       decimal.Decimal `gorm:"type:numeric(10,3);not null"`
	Cost        decimal.Decimal `gorm:"type:numeric(12,2);not null"` // rate x hours

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuxiliaryCostLine is a non-machine cost line. Amount defaults to the type's
// DefaultAmount at creation time and is independently editable afterwards.
type AuxiliaryCostLine struct {
	ID     uint `gorm:"primaryKey"`
	PartID uint `gorm:"not null;index"`

	AuxiliaryCostTypeID uint              `gorm:"not null;index"`
	AuxiliaryCostType   AuxiliaryCostType `gorm:"foreignKey:AuxiliaryCostTypeID"`
	TypeName            string            // snapshot for rendering

	Description string
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuoteCounter serializes quote-number generation: one row per year, locked
// FOR UPDATE inside the creating transaction so concurrent creates never share
// a number.
type QuoteCounter struct {
	Year int  `gorm:"primaryKey;autoIncrement:false"`
	Last int64 `gorm:"not null"`
}
