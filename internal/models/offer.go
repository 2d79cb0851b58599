package models

import "time"

// Offer states. At most one offer per (quotation, vendor); at most one
// Assigned offer per quotation.
const (
	OfferPending  = "pending"
	OfferAssigned = "assigned"
	OfferRejected = "rejected"
)

type Offer struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	QuotationID uint   `gorm:"not null;index:idx_quotation_vendor,unique,priority:1" json:"quotation_id"`
	VendorID    string `gorm:"size:36;not null;index:idx_quotation_vendor,unique,priority:2" json:"vendor_id"`
	// Amount is a snapshot of the price resolution at broadcast time, rounded
	// to whole currency units. Never recomputed after assignment.
	Amount    float64   `gorm:"not null" json:"amount"`
	State     string    `gorm:"not null;default:'pending'" json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
