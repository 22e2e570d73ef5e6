package models

import "time"

// OrderStatus is the fixed status set. Membership in the set is the only
// transition guard; any status may follow any other.
type OrderStatus string

const (
	StatusPlaced           OrderStatus = "placed"
	StatusInKitchen        OrderStatus = "inKitchen"
	StatusPrepared         OrderStatus = "prepared"
	StatusInDelivery       OrderStatus = "inDelivery"
	StatusAllDone          OrderStatus = "allDone"
	StatusCancelByCustomer OrderStatus = "cancelByCustomer"
	StatusCancelByStore    OrderStatus = "cancelByStore"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPlaced, StatusInKitchen, StatusPrepared, StatusInDelivery,
		StatusAllDone, StatusCancelByCustomer, StatusCancelByStore:
		return true
	}
	return false
}

const (
	OrderTypeDineIn   = "Dine-in"
	OrderTypeDelivery = "Delivery"
)

type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Exactly one of UserID / MobileAccountID is set. Registered customers
	// own their orders; staff-placed orders for unregistered phones hang off
	// a MobileAccount.
	UserID          *uint              `gorm:"index" json:"user_id,omitempty"`
	MobileAccountID *uint              `gorm:"index" json:"mobile_account_id,omitempty"`
	Lines           []OrderLine        `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	Status          OrderStatus        `gorm:"type:varchar(20);not null;default:'placed'" json:"status"`
	StatusHistory   []OrderStatusEvent `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"status_history"`
	OrderNo         uint               `gorm:"not null" json:"order_no"`
	OrderNote       string             `gorm:"type:text" json:"order_note"`
	OrderType       string             `gorm:"type:varchar(20);not null" json:"order_type"`
	DeliveryAddress string             `gorm:"type:text" json:"delivery_address,omitempty"`
	MobileNumber    string             `gorm:"type:varchar(20)" json:"mobile_number"`
	DeliveryManID   *uint              `gorm:"index" json:"delivery_man_id,omitempty"`
	Total           float64            `gorm:"type:decimal(10,2);not null" json:"total"`
	CreatedAt       time.Time          `gorm:"not null;index" json:"created_at"`
}

// OrderLine is a frozen copy of one cart line at placement time. Later
// catalog price changes never touch it.
type OrderLine struct {
	ID      uint    `gorm:"primaryKey" json:"-"`
	OrderID uint    `gorm:"not null;index" json:"-"`
	ItemID  uint    `gorm:"not null" json:"item_id"`
	Count   int     `gorm:"not null" json:"count"`
	Size    string  `gorm:"type:varchar(50);not null" json:"size"`
	Price   float64 `gorm:"type:decimal(10,2);not null" json:"price"`
}

// OrderStatusEvent is one entry of the append-only status audit trail.
// Order.Status always equals the status of the most recent event.
type OrderStatusEvent struct {
	ID         uint        `gorm:"primaryKey" json:"-"`
	OrderID    uint        `gorm:"not null;index" json:"-"`
	Status     OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	UpdateTime time.Time   `gorm:"not null" json:"update_time"`
}
