package models

import "time"

// Role is the closed set of roles in the system. Authorization checkpoints
// switch over it exhaustively instead of comparing raw strings.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleStaff       Role = "staff"
	RoleCustomer    Role = "customer"
	RoleDeliveryMan Role = "deliveryMan"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCustomer, RoleDeliveryMan:
		return true
	}
	return false
}

type AuthUser struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	FirstName       string     `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName        string     `gorm:"type:varchar(255);not null" json:"last_name"`
	Phone           string     `gorm:"type:varchar(20);unique;not null" json:"phone"`
	Email           string     `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password        string     `gorm:"type:varchar(255);not null" json:"-"`
	Role            Role       `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	OTP             string     `gorm:"type:varchar(10)" json:"-"`
	DeviceTokens    []string   `gorm:"serializer:json" json:"device_tokens,omitempty"`
	AccountVerified bool       `gorm:"not null;default:false" json:"account_verified"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	CurrentLogin    *time.Time `json:"current_login_time,omitempty"`
	LastLogin       *time.Time `json:"last_login_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MobileAccount is a phone-only identity created when staff place an order
// for a customer who never registered.
type MobileAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"type:varchar(20);unique;not null" json:"phone"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
