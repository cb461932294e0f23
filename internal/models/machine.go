package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Machine master. HourlyRate is the current catalog rate; operations snapshot
// it at creation time, so editing a machine never reprices existing quotations.
type Machine struct {
	ID          uint            `gorm:"primaryKey"`
	Code        string          `gorm:"size:40;unique;not null"`
	Name        string          `gorm:"not null;index"`
	Description string
	HourlyRate  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Active      bool            `gorm:"not null;default:true"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AuxiliaryCostType catalogs non-machine cost kinds (setup, inspection,
// tooling, ...). DefaultAmount seeds new lines and is never re-read afterwards.
type AuxiliaryCostType struct {
	ID            uint            `gorm:"primaryKey"`
	Code          string          `gorm:"size:40;unique;not null"`
	Name          string          `gorm:"not null;index"`
	Description   string
	DefaultAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Active        bool            `gorm:"not null;default:true"`
	DeletedAt     gorm.DeletedAt  `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
