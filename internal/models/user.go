package models

import "time"

// User & auth related models
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"unique;not null;index"`
	Password  string `gorm:"not null"` // bcrypt hash
	FirstName string `gorm:"index"`
	LastName  string `gorm:"index"`
	RoleID    uint
	Role      Role `gorm:"foreignKey:RoleID"`
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role names known to the workflow policy. Seeded at startup.
const (
	RoleAdmin      = "admin"
	RoleEngineer   = "engineer"
	RoleManagement = "management"
	RoleSales      = "sales"
)

type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"unique;not null"` // admin, engineer, management, sales
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName joins first/last name for audit entries and documents.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.LastName != "":
		return u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
