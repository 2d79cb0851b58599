package models

import "time"

// Message is one entry in the per-line-item negotiation thread between the
// buyer and the winning vendor. Append-only: never mutated or deleted.
// AttachmentRef is an opaque handle into the external attachment store.
type Message struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	QuotationID   uint      `gorm:"not null;index" json:"quotation_id"`
	LineItemID    uint      `gorm:"not null;index" json:"line_item_id"`
	AuthorID      string    `gorm:"size:36;not null" json:"author_id"`
	Body          string    `json:"body,omitempty"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReadCursor marks how far a participant has read a line-item thread.
// Last-writer-wins per participant, but it never moves backward.
type ReadCursor struct {
	ID            uint      `gorm:"primaryKey"`
	ParticipantID string    `gorm:"size:36;not null;index:idx_cursor_key,unique,priority:1"`
	LineItemID    uint      `gorm:"not null;index:idx_cursor_key,unique,priority:2"`
	LastReadAt    time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}
