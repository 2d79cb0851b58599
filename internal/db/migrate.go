package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cotizapro/go-quotes/internal/models"
)

func ConnectAndMigrate(rawDSN string) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	var db *gorm.DB
	var err error
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		fmt.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	fmt.Println("[DB] Using DSN:", masked)
	// MIGRATIONS=1 runs sql migrations via golang-migrate; otherwise AutoMigrate (dev convenience)
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"quotations", "line_items", "offers", "sales"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

// AutoMigrate creates or updates the schema for every engine model and makes
// sure the quotation counter row exists.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.InkType{}, &models.Product{}, &models.ProductInk{}, &models.Vendor{},
		&models.PriceRule{}, &models.Quotation{}, &models.LineItem{},
		&models.Offer{}, &models.Sale{}, &models.Message{}, &models.ReadCursor{},
		&models.QuotationCounter{},
	}
	for _, m := range modelsToMigrate {
		if migErr := db.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return EnsureCounter(db)
}

// EnsureCounter seeds the single quotation counter row if missing.
func EnsureCounter(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.QuotationCounter{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(&models.QuotationCounter{ID: 1, LastNumber: 0}).Error; err != nil {
			// tolerate a concurrent boot having created it
			var again int64
			db.Model(&models.QuotationCounter{}).Count(&again)
			if again == 0 {
				return err
			}
		}
	}
	return nil
}

func seed(db *gorm.DB) {
	inks := []models.InkType{
		{Name: "SOLVENTADAS"}, {Name: "ECO SOLVENTE"}, {Name: "UV"}, {Name: "LATEX"}, {Name: "RESINA"},
	}
	for i := range inks {
		var existing models.InkType
		if err := db.Where("name = ?", inks[i].Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&inks[i])
		} else {
			inks[i] = existing
		}
	}
	products := []models.Product{
		{Name: "PVC banner", BasePrice: 800, PriceSolvent: 900, PriceEcoSolvent: 950},
		{Name: "Adhesive vinyl", BasePrice: 500, PriceLatex: 650, PriceUV: 700},
		{Name: "Rigid foam board", BasePrice: 1200},
	}
	for i := range products {
		var existing models.Product
		if err := db.Where("name = ?", products[i].Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&products[i])
		} else {
			products[i] = existing
		}
	}
	// banner and vinyl carry ink variants, the rigid board does not
	compat := []models.ProductInk{
		{ProductID: products[0].ID, InkTypeID: inks[0].ID},
		{ProductID: products[0].ID, InkTypeID: inks[1].ID},
		{ProductID: products[1].ID, InkTypeID: inks[2].ID},
		{ProductID: products[1].ID, InkTypeID: inks[3].ID},
	}
	for _, pi := range compat {
		var existing models.ProductInk
		if err := db.Where("product_id = ? AND ink_type_id = ?", pi.ProductID, pi.InkTypeID).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&pi)
		}
	}
	demo := models.Vendor{ID: "00000000-0000-0000-0000-0000000000d1", Name: "Demo Print Co", Category: models.VendorCategoryAdvertising, Active: true}
	var existing models.Vendor
	if err := db.Where("id = ?", demo.ID).First(&existing).Error; err == gorm.ErrRecordNotFound {
		db.Create(&demo)
		SeedVendorRules(db, demo.ID)
	}
}

// SeedVendorRules bootstraps disabled price rules for every catalog
// product/ink pair a new vendor could quote. Vendors enable and price the
// pairs they actually serve; everything else stays an explicit opt-out.
func SeedVendorRules(db *gorm.DB, vendorID string) {
	var products []models.Product
	if err := db.Find(&products).Error; err != nil {
		return
	}
	var compat []models.ProductInk
	if err := db.Find(&compat).Error; err != nil {
		return
	}
	byProduct := map[uint][]uint{}
	for _, pi := range compat {
		byProduct[pi.ProductID] = append(byProduct[pi.ProductID], pi.InkTypeID)
	}
	for _, p := range products {
		inkIDs := byProduct[p.ID]
		if len(inkIDs) == 0 {
			rule := models.PriceRule{VendorID: vendorID, ProductID: p.ID, Price: p.BasePrice, Enabled: false}
			var existing models.PriceRule
			if err := db.Where("vendor_id = ? AND product_id = ? AND ink_type_id IS NULL", vendorID, p.ID).First(&existing).Error; err == gorm.ErrRecordNotFound {
				db.Create(&rule)
			}
			continue
		}
		for _, inkID := range inkIDs {
			ink := inkID
			rule := models.PriceRule{VendorID: vendorID, ProductID: p.ID, InkTypeID: &ink, Price: p.BasePrice, Enabled: false}
			var existing models.PriceRule
			if err := db.Where("vendor_id = ? AND product_id = ? AND ink_type_id = ?", vendorID, p.ID, inkID).First(&existing).Error; err == gorm.ErrRecordNotFound {
				db.Create(&rule)
			}
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
