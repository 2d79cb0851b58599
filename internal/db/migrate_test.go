package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cotizapro/go-quotes/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := AutoMigrate(dbi); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbi
}

func TestAutoMigrateSeedsCounter(t *testing.T) {
	dbi := openTestDB(t)
	var counter models.QuotationCounter
	if err := dbi.First(&counter, 1).Error; err != nil {
		t.Fatalf("counter row missing: %v", err)
	}
	if counter.LastNumber != 0 {
		t.Fatalf("fresh counter should start at 0, got %d", counter.LastNumber)
	}
	// a second run must not reset or duplicate it
	dbi.Model(&counter).Update("last_number", 5)
	if err := AutoMigrate(dbi); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var count int64
	dbi.Model(&models.QuotationCounter{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one counter row, got %d", count)
	}
	dbi.First(&counter, 1)
	if counter.LastNumber != 5 {
		t.Fatalf("re-migrate must not reset counter, got %d", counter.LastNumber)
	}
}

func TestSeedVendorRulesCoversCatalog(t *testing.T) {
	dbi := openTestDB(t)
	ink := models.InkType{Name: "SOLVENTADAS"}
	dbi.Create(&ink)
	withInk := models.Product{Name: "banner", BasePrice: 800}
	plain := models.Product{Name: "board", BasePrice: 1200}
	dbi.Create(&withInk)
	dbi.Create(&plain)
	dbi.Create(&models.ProductInk{ProductID: withInk.ID, InkTypeID: ink.ID})

	SeedVendorRules(dbi, "vendor-new")

	var rules []models.PriceRule
	dbi.Where("vendor_id = ?", "vendor-new").Find(&rules)
	if len(rules) != 2 {
		t.Fatalf("expected one rule per product/ink pair, got %d", len(rules))
	}
	for _, r := range rules {
		if r.Enabled {
			t.Fatalf("bootstrap rules must start disabled: %+v", r)
		}
	}
	// idempotent
	SeedVendorRules(dbi, "vendor-new")
	var count int64
	dbi.Model(&models.PriceRule{}).Where("vendor_id = ?", "vendor-new").Count(&count)
	if count != 2 {
		t.Fatalf("re-seeding must not duplicate rules, got %d", count)
	}
}

func TestNormalizeDSN(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@h:5432/db":  "postgres://u:p@h:5432/db",
		" host=h user=u dbname=db ": "host=h user=u dbname=db sslmode=disable",
		"host=h sslmode=require":    "host=h sslmode=require",
		`"host=h user=u dbname=db"`: "host=h user=u dbname=db sslmode=disable",
		"":                          "",
	}
	for in, want := range cases {
		if got := NormalizeDSN(in); got != want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", in, got, want)
		}
	}
}
