package models

import (
	"strings"
	"time"
)

// AttributeSpec describes one configurable attribute of a product family.
// Name is the display name used in API payloads; the map key it lives under
// (attribute_1, attribute_2, ...) is the storage key.
type AttributeSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Label    string `json:"label"`
	Editable bool   `json:"editable"`
}

// AttributeConfig is a family's attribute dictionary keyed by storage key.
type AttributeConfig struct {
	ID         uint                     `gorm:"primaryKey" json:"id"`
	Family     string                   `gorm:"type:varchar(255);unique;not null" json:"family"`
	Attributes map[string]AttributeSpec `gorm:"serializer:json" json:"attributes"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// AttributeMapping returns storage key -> display name.
func (ac *AttributeConfig) AttributeMapping() map[string]string {
	mapping := make(map[string]string, len(ac.Attributes))
	for key, spec := range ac.Attributes {
		mapping[key] = spec.Name
	}
	return mapping
}

// RequiredAttributes returns the storage keys flagged required.
func (ac *AttributeConfig) RequiredAttributes() []string {
	var keys []string
	for key, spec := range ac.Attributes {
		if spec.Required {
			keys = append(keys, key)
		}
	}
	return keys
}

// EditableAttributes returns the storage keys flagged editable.
func (ac *AttributeConfig) EditableAttributes() []string {
	var keys []string
	for key, spec := range ac.Attributes {
		if spec.Editable {
			keys = append(keys, key)
		}
	}
	return keys
}

// IsAttributeKey reports whether a payload key is an attribute storage key.
func IsAttributeKey(key string) bool {
	return strings.HasPrefix(key, "attribute")
}

// Product stores attribute values under the family's storage keys. Display
// names are resolved through the AttributeConfig at the API boundary.
// MissingAttributes is recomputed whenever the product is written or read.
type Product struct {
	ID                uint                   `gorm:"primaryKey" json:"id"`
	Family            string                 `gorm:"type:varchar(255);not null;index" json:"family"`
	ArticleID         string                 `gorm:"type:varchar(255);unique;not null" json:"article_id"`
	Attributes        map[string]interface{} `gorm:"serializer:json" json:"attributes"`
	MissingAttributes bool                   `gorm:"not null;default:false" json:"missing_attributes"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}
