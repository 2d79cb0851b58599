package models

import "time"

// Vendor categories and sale-enablement status come from the company registry;
// the engine only consults them to decide broadcast eligibility.
const VendorCategoryAdvertising = "advertising"

type Vendor struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	TaxID    string `gorm:"size:20" json:"tax_id,omitempty"`
	Address  string `json:"address,omitempty"`
	Category string `gorm:"not null;index" json:"category"`
	// Active vendors are enabled to sell; inactive ones never receive offers.
	Active    bool `gorm:"not null;default:false" json:"active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
