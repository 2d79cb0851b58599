package thread

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cotizapro/go-quotes/internal/models"
)

var (
	ErrNotFound   = errors.New("line_item_not_found")
	ErrNotSettled = errors.New("not_settled")
	ErrForbidden  = errors.New("forbidden")
	ErrEmptyBody  = errors.New("empty_message")
)

// Service owns the per-line-item negotiation threads between a quotation's
// buyer and its winning vendor. Threads open only once the quotation is
// settled; read state is tracked server side per participant.
type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log.With().Str("component", "thread").Logger()}
}

// threadAccess resolves the line item's quotation and sale and checks the
// caller is one of the two participants.
func (s *Service) threadAccess(ctx context.Context, callerID string, lineItemID uint) (*models.LineItem, *models.Sale, error) {
	var item models.LineItem
	if err := s.db.WithContext(ctx).First(&item, lineItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	var sale models.Sale
	if err := s.db.WithContext(ctx).Where("quotation_id = ?", item.QuotationID).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotSettled
		}
		return nil, nil, err
	}
	var q models.Quotation
	if err := s.db.WithContext(ctx).First(&q, item.QuotationID).Error; err != nil {
		return nil, nil, err
	}
	if callerID != q.BuyerID && callerID != sale.VendorID {
		return nil, nil, ErrForbidden
	}
	return &item, &sale, nil
}

// Post appends a message to the line item's thread. Either a body or an
// attachment reference is required.
func (s *Service) Post(ctx context.Context, callerID string, lineItemID uint, body, attachmentRef string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	attachmentRef = strings.TrimSpace(attachmentRef)
	if body == "" && attachmentRef == "" {
		return nil, ErrEmptyBody
	}
	item, _, err := s.threadAccess(ctx, callerID, lineItemID)
	if err != nil {
		return nil, err
	}
	msg := models.Message{
		ID:            uuid.NewString(),
		QuotationID:   item.QuotationID,
		LineItemID:    item.ID,
		AuthorID:      callerID,
		Body:          body,
		AttachmentRef: attachmentRef,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	s.log.Debug().Uint("line_item", lineItemID).Str("author", callerID).Msg("message posted")
	return &msg, nil
}

// List returns the thread messages in chronological order.
func (s *Service) List(ctx context.Context, callerID string, lineItemID uint) ([]models.Message, error) {
	if _, _, err := s.threadAccess(ctx, callerID, lineItemID); err != nil {
		return nil, err
	}
	var list []models.Message
	err := s.db.WithContext(ctx).
		Where("line_item_id = ?", lineItemID).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// MarkRead advances the caller's read cursor on the thread to now. The
// cursor only moves forward, so a stale client replaying an old mark never
// rewinds read state.
func (s *Service) MarkRead(ctx context.Context, callerID string, lineItemID uint) error {
	if _, _, err := s.threadAccess(ctx, callerID, lineItemID); err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cursor models.ReadCursor
		err := tx.Where("participant_id = ? AND line_item_id = ?", callerID, lineItemID).First(&cursor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.ReadCursor{
				ParticipantID: callerID,
				LineItemID:    lineItemID,
				LastReadAt:    now,
			}).Error
		}
		if err != nil {
			return err
		}
		if !cursor.LastReadAt.Before(now) {
			return nil
		}
		return tx.Model(&cursor).Update("last_read_at", now).Error
	})
}

// HasUnread reports whether the thread holds messages from the other
// participant newer than the caller's read cursor. A participant with no
// cursor yet counts every counterparty message as unread.
func (s *Service) HasUnread(ctx context.Context, callerID string, lineItemID uint) (bool, error) {
	if _, _, err := s.threadAccess(ctx, callerID, lineItemID); err != nil {
		return false, err
	}
	var cursor models.ReadCursor
	since := time.Time{}
	err := s.db.WithContext(ctx).
		Where("participant_id = ? AND line_item_id = ?", callerID, lineItemID).
		First(&cursor).Error
	if err == nil {
		since = cursor.LastReadAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&models.Message{}).
		Where("line_item_id = ? AND author_id <> ? AND created_at > ?", lineItemID, callerID, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
