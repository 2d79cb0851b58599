package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cotizapro/go-quotes/internal/catalog"
	"github.com/cotizapro/go-quotes/internal/models"
)

var (
	ErrNotFound   = errors.New("quotation_not_found")
	ErrValidation = errors.New("validation_error")
)

// ItemInput is one requested line: a product, its ink when the product has
// ink variants, and the physical dimensions in centimeters.
type ItemInput struct {
	ProductID uint    `json:"product_id"`
	InkTypeID *uint   `json:"ink_type_id"`
	WidthCM   float64 `json:"width_cm"`
	HeightCM  float64 `json:"height_cm"`
}

// Store owns the quotation lifecycle up to publication. Offers and
// settlement live in the offers package.
type Store struct {
	db      *gorm.DB
	catalog catalog.Gateway
	log     zerolog.Logger
}

func NewStore(db *gorm.DB, cg catalog.Gateway, log zerolog.Logger) *Store {
	return &Store{db: db, catalog: cg, log: log.With().Str("component", "quotes").Logger()}
}

// CreateDraft validates the requested items, assigns the next sequential
// number and persists the quotation in draft state. The number counter is
// incremented inside the same transaction, so concurrent creates get
// distinct contiguous numbers.
func (s *Store) CreateDraft(ctx context.Context, buyerID string, items []ItemInput) (*models.Quotation, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	lineItems := make([]models.LineItem, 0, len(items))
	for i, it := range items {
		if it.WidthCM <= 0 || it.HeightCM <= 0 {
			return nil, fmt.Errorf("%w: item %d has non-positive dimensions", ErrValidation, i)
		}
		if _, err := s.catalog.GetProduct(ctx, it.ProductID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("%w: item %d references unknown product %d", ErrValidation, i, it.ProductID)
			}
			return nil, err
		}
		compatible, err := s.catalog.InksForProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if len(compatible) > 0 {
			if it.InkTypeID == nil {
				return nil, fmt.Errorf("%w: item %d requires an ink type", ErrValidation, i)
			}
			if !containsID(compatible, *it.InkTypeID) {
				return nil, fmt.Errorf("%w: item %d ink %d is not compatible with product %d", ErrValidation, i, *it.InkTypeID, it.ProductID)
			}
		} else if it.InkTypeID != nil {
			return nil, fmt.Errorf("%w: item %d product %d has no ink variants", ErrValidation, i, it.ProductID)
		}
		lineItems = append(lineItems, models.LineItem{
			ProductID: it.ProductID,
			InkTypeID: it.InkTypeID,
			WidthCM:   it.WidthCM,
			HeightCM:  it.HeightCM,
		})
	}

	var created models.Quotation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The single-row UPDATE serializes concurrent creators on the
		// counter row without dialect-specific locking syntax.
		if err := tx.Model(&models.QuotationCounter{}).
			Where("id = ?", 1).
			Update("last_number", gorm.Expr("last_number + 1")).Error; err != nil {
			return err
		}
		var counter models.QuotationCounter
		if err := tx.First(&counter, 1).Error; err != nil {
			return err
		}
		created = models.Quotation{
			Number:  fmt.Sprintf("COT-%09d", counter.LastNumber),
			BuyerID: buyerID,
			State:   models.QuotationDraft,
			Items:   lineItems,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("number", created.Number).Str("buyer", buyerID).Int("items", len(items)).Msg("quotation drafted")
	return &created, nil
}

// Publish moves a draft quotation to published. Publishing a quotation that
// already left draft is a no-op and returns the current record unchanged.
func (s *Store) Publish(ctx context.Context, buyerID string, quotationID uint) (*models.Quotation, error) {
	q, err := s.GetOwned(ctx, buyerID, quotationID)
	if err != nil {
		return nil, err
	}
	if q.State != models.QuotationDraft {
		return q, nil
	}
	if err := s.db.WithContext(ctx).Model(q).
		Where("state = ?", models.QuotationDraft).
		Update("state", models.QuotationPublished).Error; err != nil {
		return nil, err
	}
	q.State = models.QuotationPublished
	s.log.Info().Str("number", q.Number).Msg("quotation published")
	return q, nil
}

// GetOwned loads a quotation with its line items, enforcing buyer ownership.
// A quotation belonging to someone else reads as not found.
func (s *Store) GetOwned(ctx context.Context, buyerID string, quotationID uint) (*models.Quotation, error) {
	var q models.Quotation
	err := s.db.WithContext(ctx).Preload("Items").First(&q, quotationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if q.BuyerID != buyerID {
		return nil, ErrNotFound
	}
	return &q, nil
}

// Get loads a quotation with its line items without an ownership check.
func (s *Store) Get(ctx context.Context, quotationID uint) (*models.Quotation, error) {
	var q models.Quotation
	err := s.db.WithContext(ctx).Preload("Items").First(&q, quotationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByBuyer returns the buyer's quotations, newest first.
func (s *Store) ListByBuyer(ctx context.Context, buyerID string) ([]models.Quotation, error) {
	var list []models.Quotation
	err := s.db.WithContext(ctx).Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListAssigned returns the quotations whose sale was won by the vendor,
// newest first.
func (s *Store) ListAssigned(ctx context.Context, vendorID string) ([]models.Quotation, error) {
	var list []models.Quotation
	err := s.db.WithContext(ctx).Preload("Items").
		Joins("JOIN sales ON sales.quotation_id = quotations.id").
		Where("sales.vendor_id = ?", vendorID).
		Order("quotations.id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
