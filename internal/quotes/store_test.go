package quotes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cotizapro/go-quotes/internal/catalog"
	dbsetup "github.com/cotizapro/go-quotes/internal/db"
	"github.com/cotizapro/go-quotes/internal/models"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := dbsetup.AutoMigrate(dbi); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := dbi.DB()
	sqlDB.SetMaxOpenConns(1)
	return NewStore(dbi, catalog.NewGateway(dbi), zerolog.Nop()), dbi
}

func seedCatalog(t *testing.T, dbi *gorm.DB) (models.Product, models.Product, models.InkType) {
	t.Helper()
	ink := models.InkType{Name: "SOLVENTADAS"}
	if err := dbi.Create(&ink).Error; err != nil {
		t.Fatalf("seed ink: %v", err)
	}
	withInk := models.Product{Name: "banner", BasePrice: 800, PriceSolvent: 900}
	plain := models.Product{Name: "board", BasePrice: 1200}
	if err := dbi.Create(&withInk).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := dbi.Create(&plain).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := dbi.Create(&models.ProductInk{ProductID: withInk.ID, InkTypeID: ink.ID}).Error; err != nil {
		t.Fatalf("seed compat: %v", err)
	}
	return withInk, plain, ink
}

func TestCreateDraftValidation(t *testing.T) {
	store, dbi := setupStore(t)
	withInk, plain, ink := seedCatalog(t, dbi)
	ctx := context.Background()

	cases := []struct {
		name  string
		items []ItemInput
	}{
		{"no items", nil},
		{"zero width", []ItemInput{{ProductID: plain.ID, WidthCM: 0, HeightCM: 100}}},
		{"negative height", []ItemInput{{ProductID: plain.ID, WidthCM: 100, HeightCM: -5}}},
		{"unknown product", []ItemInput{{ProductID: 9999, WidthCM: 100, HeightCM: 100}}},
		{"missing required ink", []ItemInput{{ProductID: withInk.ID, WidthCM: 100, HeightCM: 100}}},
		{"ink on variantless product", []ItemInput{{ProductID: plain.ID, InkTypeID: &ink.ID, WidthCM: 100, HeightCM: 100}}},
	}
	for _, tc := range cases {
		if _, err := store.CreateDraft(ctx, "buyer-1", tc.items); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}

	incompatible := uint(12345)
	if _, err := store.CreateDraft(ctx, "buyer-1", []ItemInput{{ProductID: withInk.ID, InkTypeID: &incompatible, WidthCM: 100, HeightCM: 100}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for incompatible ink, got %v", err)
	}
}

func TestCreateDraftNumbering(t *testing.T) {
	store, dbi := setupStore(t)
	_, plain, _ := seedCatalog(t, dbi)
	ctx := context.Background()

	first, err := store.CreateDraft(ctx, "buyer-1", []ItemInput{{ProductID: plain.ID, WidthCM: 100, HeightCM: 100}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Number != "COT-000000001" {
		t.Fatalf("expected COT-000000001, got %s", first.Number)
	}
	if first.State != models.QuotationDraft {
		t.Fatalf("expected draft state, got %s", first.State)
	}
	second, err := store.CreateDraft(ctx, "buyer-2", []ItemInput{{ProductID: plain.ID, WidthCM: 50, HeightCM: 50}})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Number != "COT-000000002" {
		t.Fatalf("expected COT-000000002, got %s", second.Number)
	}
}

func TestCreateDraftConcurrentNumbers(t *testing.T) {
	store, dbi := setupStore(t)
	_, plain, _ := seedCatalog(t, dbi)

	const n = 10
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(buyer int) {
			defer wg.Done()
			q, err := store.CreateDraft(context.Background(), fmt.Sprintf("buyer-%d", buyer), []ItemInput{{ProductID: plain.ID, WidthCM: 100, HeightCM: 100}})
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			numbers <- q.Number
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		if seen[num] {
			t.Fatalf("duplicate quotation number %s", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct numbers, got %d", n, len(seen))
	}
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("COT-%09d", i)
		if !seen[want] {
			t.Fatalf("missing contiguous number %s", want)
		}
	}
}

func TestPublishTransitions(t *testing.T) {
	store, dbi := setupStore(t)
	_, plain, _ := seedCatalog(t, dbi)
	ctx := context.Background()

	q, err := store.CreateDraft(ctx, "buyer-1", []ItemInput{{ProductID: plain.ID, WidthCM: 100, HeightCM: 100}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	published, err := store.Publish(ctx, "buyer-1", q.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.State != models.QuotationPublished {
		t.Fatalf("expected published, got %s", published.State)
	}
	// Re-publishing is a no-op.
	again, err := store.Publish(ctx, "buyer-1", q.ID)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if again.State != models.QuotationPublished {
		t.Fatalf("expected published after no-op, got %s", again.State)
	}
}

func TestOwnershipScoping(t *testing.T) {
	store, dbi := setupStore(t)
	_, plain, _ := seedCatalog(t, dbi)
	ctx := context.Background()

	q, err := store.CreateDraft(ctx, "buyer-1", []ItemInput{{ProductID: plain.ID, WidthCM: 100, HeightCM: 100}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.GetOwned(ctx, "buyer-2", q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign buyer, got %v", err)
	}
	if _, err := store.Publish(ctx, "buyer-2", q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign publish, got %v", err)
	}

	mine, err := store.ListByBuyer(ctx, "buyer-1")
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected 1 quotation for owner, got %d err=%v", len(mine), err)
	}
	other, err := store.ListByBuyer(ctx, "buyer-2")
	if err != nil || len(other) != 0 {
		t.Fatalf("expected 0 quotations for stranger, got %d err=%v", len(other), err)
	}
}

func TestAreaComputation(t *testing.T) {
	it := models.LineItem{WidthCM: 150, HeightCM: 200}
	if got := it.AreaM2(); got != 3 {
		t.Fatalf("150x200cm should be 3 m2, got %v", got)
	}
}
