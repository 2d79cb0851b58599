package models

import "time"

// PriceRule is a vendor's personalized price for a product/ink combination.
// InkTypeID is nil for products without ink variants. A rule with Enabled
// false is an explicit opt-out: resolution stops there, no base fallback.
// Vendor onboarding seeds one disabled rule per catalog pair.
type PriceRule struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	VendorID  string  `gorm:"size:36;not null;index:idx_rule_key,unique,priority:1" json:"vendor_id"`
	ProductID uint    `gorm:"not null;index:idx_rule_key,unique,priority:2" json:"product_id"`
	InkTypeID *uint   `gorm:"index:idx_rule_key,unique,priority:3" json:"ink_type_id,omitempty"`
	Price     float64 `gorm:"not null;default:0" json:"price"`
	Enabled   bool    `gorm:"not null;default:false" json:"enabled"`
	CreatedAt time.Time
	UpdatedAt time.Time `json:"updated_at"`
}
