package models

import "time"

// Catalog models. The engine only reads these; editing screens live elsewhere.

type InkType struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null;unique" json:"name"` // ex: SOLVENTADAS, UV, LATEX
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	// Generic base price per m2, used when no ink-specific price applies.
	BasePrice float64 `gorm:"not null;default:0" json:"base_price"`
	// Ink-class base prices per m2. Zero means "not priced for that ink".
	PriceSolvent    float64 `gorm:"not null;default:0" json:"price_solvent"`
	PriceEcoSolvent float64 `gorm:"not null;default:0" json:"price_eco_solvent"`
	PriceUV         float64 `gorm:"not null;default:0" json:"price_uv"`
	PriceLatex      float64 `gorm:"not null;default:0" json:"price_latex"`
	PriceResin      float64 `gorm:"not null;default:0" json:"price_resin"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProductInk is the product <-> ink compatibility relation. A product with no
// rows here has no ink variants and its line items carry no ink type.
type ProductInk struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;index:idx_product_ink,unique,priority:1"`
	InkTypeID uint `gorm:"not null;index:idx_product_ink,unique,priority:2"`
}
