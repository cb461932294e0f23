package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer master. The quotation core only consumes display fields;
// commercial details live here for document rendering.
type Customer struct {
	ID            uint   `gorm:"primaryKey"`
	Code          string `gorm:"size:40;unique;not null"`
	Name          string `gorm:"not null;index"`
	ContactPerson string
	Email         string `gorm:"index"`
	Phone         string
	AddressLine1  string
	AddressLine2  string
	PostalCode    string
	City          string
	Country       string
	TaxNumber     string `gorm:"index"`
	Active        bool   `gorm:"not null;default:true"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
