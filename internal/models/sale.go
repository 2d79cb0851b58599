package models

import "time"

const (
	SalePending   = "pending"
	SaleCompleted = "completed"
)

// Sale is the settled outcome of arbitration: exactly one per quotation,
// created in the same transaction that assigns the winning offer. The split
// tracks the commission but no money moves here.
type Sale struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	QuotationID uint      `gorm:"not null;uniqueIndex" json:"quotation_id"`
	OfferID     uint      `gorm:"not null" json:"offer_id"`
	VendorID    string    `gorm:"size:36;not null;index" json:"vendor_id"`
	Amount      float64   `gorm:"not null" json:"amount"`
	VendorShare float64   `gorm:"not null" json:"vendor_share"`
	Commission  float64   `gorm:"not null" json:"commission"`
	State       string    `gorm:"not null;default:'pending'" json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}
