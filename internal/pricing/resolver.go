package pricing

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cotizapro/go-quotes/internal/catalog"
	"github.com/cotizapro/go-quotes/internal/models"
)

// ErrUnavailable means no price could be resolved for the vendor and the
// line item combination, so the vendor cannot quote it.
var ErrUnavailable = errors.New("price_unavailable")

// InkClass groups the catalog ink names into the pricing columns a product
// carries. Unknown names fall into InkOther and only the generic base applies.
type InkClass int

const (
	InkOther InkClass = iota
	InkSolvent
	InkEcoSolvent
	InkUV
	InkLatex
	InkResin
)

// ClassifyInk maps a raw catalog ink name onto its pricing class. Matching is
// whitespace and case insensitive; legacy spellings stay supported.
func ClassifyInk(name string) InkClass {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SOLVENTADAS", "SOLVENTADA":
		return InkSolvent
	case "ECO SOLVENTE", "ECO-SOLVENTADAS":
		return InkEcoSolvent
	case "UV":
		return InkUV
	case "LATEX":
		return InkLatex
	case "RESINA":
		return InkResin
	}
	return InkOther
}

// Resolver computes the per-m2 unit price one vendor charges for a product
// and ink combination. Resolution order: vendor price rule, then the
// product's ink class base, then the generic base.
type Resolver struct {
	db      *gorm.DB
	catalog catalog.Gateway
}

func NewResolver(db *gorm.DB, cg catalog.Gateway) *Resolver {
	return &Resolver{db: db, catalog: cg}
}

// UnitPrice resolves the unit price for vendorID on (productID, inkTypeID).
// A disabled rule is an explicit opt-out: it returns ErrUnavailable without
// falling back to any base price.
func (r *Resolver) UnitPrice(ctx context.Context, vendorID string, productID uint, inkTypeID *uint) (float64, error) {
	rule, err := r.findRule(ctx, vendorID, productID, inkTypeID)
	if err != nil {
		return 0, err
	}
	if rule != nil {
		if !rule.Enabled {
			return 0, ErrUnavailable
		}
		if rule.Price > 0 {
			return rule.Price, nil
		}
		// enabled but unpriced, fall through to the base cascade
	}

	product, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	if inkTypeID != nil {
		ink, inkErr := r.catalog.GetInkType(ctx, *inkTypeID)
		if inkErr != nil {
			return 0, inkErr
		}
		if base := classBase(product, ClassifyInk(ink.Name)); base > 0 {
			return base, nil
		}
	}
	if product.BasePrice > 0 {
		return product.BasePrice, nil
	}
	return 0, ErrUnavailable
}

func (r *Resolver) findRule(ctx context.Context, vendorID string, productID uint, inkTypeID *uint) (*models.PriceRule, error) {
	q := r.db.WithContext(ctx).Where("vendor_id = ? AND product_id = ?", vendorID, productID)
	if inkTypeID == nil {
		q = q.Where("ink_type_id IS NULL")
	} else {
		q = q.Where("ink_type_id = ?", *inkTypeID)
	}
	var rule models.PriceRule
	err := q.First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func classBase(p *models.Product, class InkClass) float64 {
	switch class {
	case InkSolvent:
		return p.PriceSolvent
	case InkEcoSolvent:
		return p.PriceEcoSolvent
	case InkUV:
		return p.PriceUV
	case InkLatex:
		return p.PriceLatex
	case InkResin:
		return p.PriceResin
	}
	return 0
}
