package offers

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cotizapro/go-quotes/internal/models"
	"github.com/cotizapro/go-quotes/internal/pricing"
	"github.com/cotizapro/go-quotes/internal/quotes"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrNotPublished   = errors.New("quotation_not_published")
	ErrOfferNotFound  = errors.New("offer_not_found")
	ErrAlreadySettled = errors.New("quotation_already_settled")
	ErrSaleNotFound   = errors.New("sale_not_found")
)

// LinePrice is the display breakdown of one line item inside a vendor offer.
type LinePrice struct {
	LineItemID uint    `json:"line_item_id"`
	UnitPrice  float64 `json:"unit_price"`
	AreaM2     float64 `json:"area_m2"`
	Subtotal   float64 `json:"subtotal"`
}

// OfferView is an offer enriched with its per-line breakdown for listings.
type OfferView struct {
	models.Offer
	Lines []LinePrice `json:"lines,omitempty"`
}

// Service computes vendor offers for published quotations and arbitrates
// acceptance so exactly one sale exists per quotation.
type Service struct {
	db             *gorm.DB
	quotes         *quotes.Store
	resolver       *pricing.Resolver
	commissionRate float64
	log            zerolog.Logger
}

func NewService(db *gorm.DB, qs *quotes.Store, resolver *pricing.Resolver, commissionRate float64, log zerolog.Logger) *Service {
	return &Service{
		db:             db,
		quotes:         qs,
		resolver:       resolver,
		commissionRate: commissionRate,
		log:            log.With().Str("component", "offers").Logger(),
	}
}

// Broadcast computes an offer per eligible vendor for a published quotation.
// An offer exists only when the vendor resolves a price for every line item;
// one unresolvable line drops the whole vendor. Re-broadcasting refreshes
// amounts of offers still pending and never touches assigned or rejected
// ones. Vendors whose price rules fail on one run do not affect the others.
func (s *Service) Broadcast(ctx context.Context, buyerID string, quotationID uint) ([]models.Offer, error) {
	q, err := s.quotes.GetOwned(ctx, buyerID, quotationID)
	if err != nil {
		return nil, err
	}
	if q.State != models.QuotationPublished {
		return nil, ErrNotPublished
	}

	var vendors []models.Vendor
	err = s.db.WithContext(ctx).
		Where("active = ? AND lower(category) LIKE ?", true, "%"+models.VendorCategoryAdvertising+"%").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}

	created := make([]models.Offer, 0, len(vendors))
	for _, v := range vendors {
		total, quoteErr := s.quoteAll(ctx, v.ID, q.Items)
		if quoteErr != nil {
			if errors.Is(quoteErr, pricing.ErrUnavailable) {
				continue
			}
			s.log.Warn().Err(quoteErr).Str("vendor", v.ID).Str("number", q.Number).Msg("skipping vendor on broadcast")
			continue
		}
		offer := models.Offer{
			QuotationID: q.ID,
			VendorID:    v.ID,
			Amount:      total,
			State:       models.OfferPending,
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "quotation_id"}, {Name: "vendor_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"amount": total}),
			Where:     clause.Where{Exprs: []clause.Expression{clause.Eq{Column: "offers.state", Value: models.OfferPending}}},
		}).Create(&offer)
		if res.Error != nil {
			return nil, res.Error
		}
		// The upsert leaves assigned and rejected offers alone; only rows
		// it actually wrote belong in the result.
		if res.RowsAffected == 0 {
			continue
		}
		var saved models.Offer
		if err := s.db.WithContext(ctx).Where("quotation_id = ? AND vendor_id = ?", q.ID, v.ID).First(&saved).Error; err != nil {
			return nil, err
		}
		created = append(created, saved)
	}
	s.log.Info().Str("number", q.Number).Int("offers", len(created)).Msg("quotation broadcast")
	return created, nil
}

// quoteAll resolves every line for one vendor and returns the rounded total.
func (s *Service) quoteAll(ctx context.Context, vendorID string, items []models.LineItem) (float64, error) {
	var total float64
	for i := range items {
		it := &items[i]
		unit, err := s.resolver.UnitPrice(ctx, vendorID, it.ProductID, it.InkTypeID)
		if err != nil {
			return 0, err
		}
		total += unit * it.AreaM2()
	}
	return math.Round(total), nil
}

// Accept assigns the vendor's pending offer and creates the sale. Only the
// quotation owner may accept. Concurrent accepts are serialized on the
// quotation row; the loser of the race gets the existing sale back together
// with ErrAlreadySettled.
func (s *Service) Accept(ctx context.Context, callerID string, quotationID uint, vendorID string) (*models.Sale, error) {
	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quotation
		if err := tx.First(&q, quotationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return quotes.ErrNotFound
			}
			return err
		}
		if q.BuyerID != callerID {
			return ErrForbidden
		}
		// Touching the quotation row first gives every accept a common
		// lock point, so the conditional assign below runs one at a time.
		if err := tx.Model(&models.Quotation{}).
			Where("id = ?", quotationID).
			Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
			return err
		}

		res := tx.Exec(`UPDATE offers SET state = ? WHERE quotation_id = ? AND vendor_id = ? AND state = ?
			AND NOT EXISTS (SELECT 1 FROM offers o2 WHERE o2.quotation_id = ? AND o2.state = ?)`,
			models.OfferAssigned, quotationID, vendorID, models.OfferPending,
			quotationID, models.OfferAssigned)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing models.Sale
			err := tx.Where("quotation_id = ?", quotationID).First(&existing).Error
			if err == nil {
				sale = &existing
				return ErrAlreadySettled
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return ErrOfferNotFound
		}

		var winner models.Offer
		if err := tx.Where("quotation_id = ? AND vendor_id = ?", quotationID, vendorID).First(&winner).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Offer{}).
			Where("quotation_id = ? AND vendor_id <> ? AND state = ?", quotationID, vendorID, models.OfferPending).
			Update("state", models.OfferRejected).Error; err != nil {
			return err
		}

		commission := math.Round(winner.Amount * s.commissionRate)
		created := models.Sale{
			QuotationID: quotationID,
			OfferID:     winner.ID,
			VendorID:    vendorID,
			Amount:      winner.Amount,
			VendorShare: winner.Amount - commission,
			Commission:  commission,
			State:       models.SalePending,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Quotation{}).
			Where("id = ?", quotationID).
			Update("state", models.QuotationSettled).Error; err != nil {
			return err
		}
		sale = &created
		return nil
	})
	if err != nil {
		return sale, err
	}
	s.log.Info().Uint("quotation", quotationID).Str("vendor", vendorID).Float64("amount", sale.Amount).Msg("offer accepted")
	return sale, nil
}

// Reject marks the vendor's offer rejected. Rejecting an already rejected
// offer is a no-op. When no pending offers remain and no sale exists, the
// quotation moves to all_rejected.
func (s *Service) Reject(ctx context.Context, callerID string, quotationID uint, vendorID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quotation
		if err := tx.First(&q, quotationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return quotes.ErrNotFound
			}
			return err
		}
		if q.BuyerID != callerID {
			return ErrForbidden
		}
		// Same lock point as Accept: rejects on one quotation run one at
		// a time so the pending count below sees committed state.
		if err := tx.Model(&models.Quotation{}).
			Where("id = ?", quotationID).
			Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
			return err
		}
		var offer models.Offer
		if err := tx.Where("quotation_id = ? AND vendor_id = ?", quotationID, vendorID).First(&offer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOfferNotFound
			}
			return err
		}
		switch offer.State {
		case models.OfferRejected:
			return nil
		case models.OfferAssigned:
			return ErrAlreadySettled
		}
		if err := tx.Model(&offer).Update("state", models.OfferRejected).Error; err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&models.Offer{}).
			Where("quotation_id = ? AND state = ?", quotationID, models.OfferPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending == 0 && q.State == models.QuotationPublished {
			if err := tx.Model(&models.Quotation{}).
				Where("id = ? AND state = ?", quotationID, models.QuotationPublished).
				Update("state", models.QuotationAllRejected).Error; err != nil {
				return err
			}
			s.log.Info().Uint("quotation", quotationID).Msg("all offers rejected")
		}
		return nil
	})
}

// List returns the offers on a quotation with their per-line breakdown.
// Only the quotation owner sees them. The breakdown is recomputed from the
// current price rules, so a rule edited after broadcast can show a line
// total diverging from the stored offer amount.
func (s *Service) List(ctx context.Context, callerID string, quotationID uint) ([]OfferView, error) {
	q, err := s.quotes.GetOwned(ctx, callerID, quotationID)
	if err != nil {
		return nil, err
	}
	var list []models.Offer
	if err := s.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("amount ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	views := make([]OfferView, 0, len(list))
	for _, o := range list {
		view := OfferView{Offer: o}
		for i := range q.Items {
			it := &q.Items[i]
			unit, priceErr := s.resolver.UnitPrice(ctx, o.VendorID, it.ProductID, it.InkTypeID)
			if priceErr != nil {
				continue
			}
			area := it.AreaM2()
			view.Lines = append(view.Lines, LinePrice{
				LineItemID: it.ID,
				UnitPrice:  unit,
				AreaM2:     area,
				Subtotal:   unit * area,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// ListForVendor returns the vendor's own offers, newest first.
func (s *Service) ListForVendor(ctx context.Context, vendorID string) ([]models.Offer, error) {
	var list []models.Offer
	err := s.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// GetSale returns the sale on a quotation to its buyer or winning vendor.
func (s *Service) GetSale(ctx context.Context, callerID string, quotationID uint) (*models.Sale, error) {
	var q models.Quotation
	if err := s.db.WithContext(ctx).First(&q, quotationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, quotes.ErrNotFound
		}
		return nil, err
	}
	var sale models.Sale
	if err := s.db.WithContext(ctx).Where("quotation_id = ?", quotationID).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	if callerID != q.BuyerID && callerID != sale.VendorID {
		return nil, ErrForbidden
	}
	return &sale, nil
}

// CompleteSale lets the winning vendor mark a pending sale completed.
// Completing an already completed sale is a no-op.
func (s *Service) CompleteSale(ctx context.Context, vendorID string, quotationID uint) (*models.Sale, error) {
	var sale models.Sale
	if err := s.db.WithContext(ctx).Where("quotation_id = ?", quotationID).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	if sale.VendorID != vendorID {
		return nil, ErrForbidden
	}
	if sale.State == models.SaleCompleted {
		return &sale, nil
	}
	if err := s.db.WithContext(ctx).Model(&sale).Update("state", models.SaleCompleted).Error; err != nil {
		return nil, err
	}
	sale.State = models.SaleCompleted
	s.log.Info().Uint("quotation", quotationID).Str("vendor", vendorID).Msg("sale completed")
	return &sale, nil
}
