package models

import "time"

// QuotationAudit is an immutable record of one applied workflow transition.
// Rows are only ever inserted, never updated or deleted.
type QuotationAudit struct {
	ID          uint   `gorm:"primaryKey"`
	QuotationID uint   `gorm:"not null;index"`
	Action      string `gorm:"size:40;not null"` // submit, engineer_approve, ...
	FromStatus  Status `gorm:"size:32;not null"`
	ToStatus    Status `gorm:"size:32;not null"`
	ActorID     uint   `gorm:"not null"`
	ActorName   string // snapshot so the trail survives user renames
	Comment     string
	CreatedAt   time.Time
}
