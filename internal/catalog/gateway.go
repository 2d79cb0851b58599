package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cotizapro/go-quotes/internal/models"
)

var ErrNotFound = errors.New("catalog_not_found")

// Gateway is the read-only view of the product catalog the engine consumes.
// Catalog editing happens elsewhere; nothing here mutates.
type Gateway interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	GetInkType(ctx context.Context, id uint) (*models.InkType, error)
	// InksForProduct returns the compatible ink type ids; an empty slice
	// means the product has no ink variants.
	InksForProduct(ctx context.Context, productID uint) ([]uint, error)
}

type gormGateway struct {
	db *gorm.DB
}

func NewGateway(db *gorm.DB) Gateway { return &gormGateway{db: db} }

func (g *gormGateway) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := g.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *gormGateway) GetInkType(ctx context.Context, id uint) (*models.InkType, error) {
	var ink models.InkType
	err := g.db.WithContext(ctx).First(&ink, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ink, nil
}

func (g *gormGateway) InksForProduct(ctx context.Context, productID uint) ([]uint, error) {
	var rel []models.ProductInk
	if err := g.db.WithContext(ctx).Where("product_id = ?", productID).Find(&rel).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rel))
	for _, pi := range rel {
		ids = append(ids, pi.InkTypeID)
	}
	return ids, nil
}
