package models

import "time"

type Item struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ItemName  string     `gorm:"type:varchar(255);unique;not null" json:"item_name"`
	Price     float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	ImgURL    string     `gorm:"type:varchar(512);unique;not null" json:"img_url"`
	ItemGroup string     `gorm:"type:varchar(100)" json:"item_group"`
	Sizes     []ItemSize `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"available_sizes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ItemSize is a price variant for one size of an item. Cart pricing uses the
// variant price when the requested size matches, the base price otherwise.
type ItemSize struct {
	ID     uint    `gorm:"primaryKey" json:"-"`
	ItemID uint    `gorm:"not null;index" json:"-"`
	Size   string  `gorm:"type:varchar(50);not null" json:"size"`
	Price  float64 `gorm:"type:decimal(10,2);not null" json:"price"`
}

// PriceForSize resolves the effective price for a size.
func (i *Item) PriceForSize(size string) float64 {
	for _, s := range i.Sizes {
		if s.Size == size {
			return s.Price
		}
	}
	return i.Price
}
