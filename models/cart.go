package models

import "time"

// Cart is keyed 1:1 by user id — the user id is the primary key, not a
// generated id. A cart with zero lines is treated the same as no cart.
type Cart struct {
	UserID    uint       `gorm:"primaryKey" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartUserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one (item, size, count) line. Lines are unique per
// (item, size); adds merge into the existing line instead of duplicating.
type CartItem struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	CartUserID uint   `gorm:"not null;index:idx_cart_item_size,unique" json:"-"`
	ItemID     uint   `gorm:"not null;index:idx_cart_item_size,unique" json:"item_id"`
	Count      int    `gorm:"not null;default:1" json:"count"`
	Size       string `gorm:"type:varchar(50);not null;default:'regular';index:idx_cart_item_size,unique" json:"size"`
}
