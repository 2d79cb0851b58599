package models

import "time"

// Quotation lifecycle states. Settled and AllRejected are terminal; a
// quotation may also stay Published indefinitely awaiting acceptance.
const (
	QuotationDraft       = "draft"
	QuotationPublished   = "published"
	QuotationSettled     = "settled"
	QuotationAllRejected = "all_rejected"
)

type Quotation struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Human-readable number, COT- plus a 9-digit zero-padded integer,
	// globally unique and monotonically increasing across all buyers.
	Number    string     `gorm:"size:20;not null;uniqueIndex" json:"number"`
	BuyerID   string     `gorm:"size:36;not null;index" json:"buyer_id"`
	State     string     `gorm:"not null;default:'draft'" json:"state"`
	Items     []LineItem `gorm:"foreignKey:QuotationID" json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"-"`
}

// LineItem dimensions are centimeters. InkTypeID is nil only for products
// without ink variants. Immutable once the quotation leaves Draft.
type LineItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	QuotationID uint    `gorm:"not null;index" json:"quotation_id"`
	ProductID   uint    `gorm:"not null" json:"product_id"`
	InkTypeID   *uint   `json:"ink_type_id,omitempty"`
	WidthCM     float64 `gorm:"not null" json:"width_cm"`
	HeightCM    float64 `gorm:"not null" json:"height_cm"`
}

// AreaM2 is the printed area in square meters (dimensions are cm).
func (it *LineItem) AreaM2() float64 {
	return it.WidthCM * it.HeightCM / 10000
}

// QuotationCounter is a single-row table backing global number assignment.
// Incrementing it inside the creation transaction serializes concurrent
// drafts so numbers stay unique and contiguous.
type QuotationCounter struct {
	ID         uint `gorm:"primaryKey"`
	LastNumber int64
}
