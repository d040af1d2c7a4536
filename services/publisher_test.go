package services

import (
	"context"
	"errors"
	"testing"

	"menu-builder-api/models"
)

func pizzeriaDraft() MenuDraft {
	return MenuDraft{
		Restaurant: RestaurantInfo{Name: "La Pizzería de Mario", Theme: "classic"},
		Categories: []CategoryDraft{
			{
				Name: "Entradas",
				Icon: "🍕",
				Items: []ItemDraft{
					{Name: "Pizza Margherita", Price: 2500, Featured: false},
				},
			},
		},
	}
}

func TestPublishMenuHappyPath(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "free") // plan_limit_restaurants = 1
	quota := NewQuotaGuard(db, newTestLogger())
	ledger := NewLedger(db, newTestLogger())
	pub := NewPublisher(db, quota, ledger, newTestLogger())
	ctx := context.Background()

	result, err := pub.PublishMenu(ctx, owner.ID, pizzeriaDraft())
	if err != nil {
		t.Fatalf("PublishMenu: %v", err)
	}
	if result.Restaurant.Slug != "la-pizzeria-de-mario" {
		t.Errorf("slug=%q, want la-pizzeria-de-mario", result.Restaurant.Slug)
	}
	if !result.Restaurant.IsActive {
		t.Error("restaurant should be active")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings=%v, want none", result.Warnings)
	}

	var category models.MenuCategory
	if err := db.Where("restaurant_id = ?", result.Restaurant.ID).First(&category).Error; err != nil {
		t.Fatalf("category missing: %v", err)
	}
	if category.SortOrder != 0 || category.Name != "Entradas" || category.Icon != "🍕" {
		t.Errorf("category=%+v, want Entradas at sort 0", category)
	}

	var item models.MenuItem
	if err := db.Where("category_id = ?", category.ID).First(&item).Error; err != nil {
		t.Fatalf("item missing: %v", err)
	}
	if item.SortOrder != 0 || item.Price != 2500 || !item.IsAvailable {
		t.Errorf("item=%+v, want sort 0, price 2500, available", item)
	}
	if item.RestaurantID != category.RestaurantID {
		t.Errorf("item.restaurant_id=%d, want %d", item.RestaurantID, category.RestaurantID)
	}

	// Audit entry and usage counters follow the publish.
	var entry models.ActivityLog
	if err := db.Where("user_id = ? AND event_type = ?", owner.ID, EventMenuCreated).First(&entry).Error; err != nil {
		t.Fatalf("activity entry missing: %v", err)
	}
	var period models.UsagePeriod
	if err := db.Where("user_id = ?", owner.ID).First(&period).Error; err != nil {
		t.Fatalf("usage period missing: %v", err)
	}
	if period.CurrentRestaurantsCount != 1 || period.CategoriesCreated != 1 || period.MenuItemsCreated != 1 {
		t.Errorf("period=%+v, want counts 1/1/1", period)
	}
}

func TestPublishMenuQuotaExceededWritesNothing(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "free")
	quota := NewQuotaGuard(db, newTestLogger())
	ledger := NewLedger(db, newTestLogger())
	pub := NewPublisher(db, quota, ledger, newTestLogger())
	ctx := context.Background()

	if _, err := pub.PublishMenu(ctx, owner.ID, pizzeriaDraft()); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	second := pizzeriaDraft()
	second.Restaurant.Name = "Don Pepe"
	_, err := pub.PublishMenu(ctx, owner.ID, second)
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("err=%v, want QuotaExceededError", err)
	}
	if quotaErr.Current != 1 || quotaErr.Limit == nil || *quotaErr.Limit != 1 {
		t.Errorf("quota error=%+v, want current 1, limit 1", quotaErr)
	}

	var restaurants int64
	db.Model(&models.Restaurant{}).Where("owner_id = ?", owner.ID).Count(&restaurants)
	if restaurants != 1 {
		t.Errorf("restaurants=%d, want 1 (rejected publish must write nothing)", restaurants)
	}
}

func TestPublishMenuDropsEmptyCategories(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "pro")
	quota := NewQuotaGuard(db, newTestLogger())
	pub := NewPublisher(db, quota, NewLedger(db, newTestLogger()), newTestLogger())

	draft := pizzeriaDraft()
	draft.Categories = append(draft.Categories, CategoryDraft{Name: "Postres", Icon: "🍰"})

	result, err := pub.PublishMenu(context.Background(), owner.ID, draft)
	if err != nil {
		t.Fatalf("PublishMenu: %v", err)
	}
	if result.CategoriesCreated != 1 {
		t.Errorf("categories_created=%d, want 1", result.CategoriesCreated)
	}
	var count int64
	db.Model(&models.MenuCategory{}).Where("restaurant_id = ?", result.Restaurant.ID).Count(&count)
	if count != 1 {
		t.Errorf("persisted categories=%d, want 1 (empty category must be absent)", count)
	}
}

func TestPublishMenuOrderingInvariant(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "pro")
	quota := NewQuotaGuard(db, newTestLogger())
	pub := NewPublisher(db, quota, NewLedger(db, newTestLogger()), newTestLogger())

	draft := MenuDraft{
		Restaurant: RestaurantInfo{Name: "Casa del Mar"},
		Categories: []CategoryDraft{
			{Name: "Entradas", Items: []ItemDraft{{Name: "Empanada", Price: 800}, {Name: "Provoleta", Price: 1200}}},
			{Name: "Postres"}, // dropped: positions below must not shift for it
			{Name: "Principales", Items: []ItemDraft{{Name: "Milanesa", Price: 3000}}},
		},
	}
	result, err := pub.PublishMenu(context.Background(), owner.ID, draft)
	if err != nil {
		t.Fatalf("PublishMenu: %v", err)
	}

	var categories []models.MenuCategory
	db.Where("restaurant_id = ?", result.Restaurant.ID).Order("sort_order").Find(&categories)
	if len(categories) != 2 {
		t.Fatalf("categories=%d, want 2", len(categories))
	}
	if categories[0].Name != "Entradas" || categories[0].SortOrder != 0 {
		t.Errorf("first category=%+v, want Entradas at 0", categories[0])
	}
	if categories[1].Name != "Principales" || categories[1].SortOrder != 1 {
		t.Errorf("second category=%+v, want Principales at 1", categories[1])
	}

	var items []models.MenuItem
	db.Where("category_id = ?", categories[0].ID).Order("sort_order").Find(&items)
	if len(items) != 2 || items[0].Name != "Empanada" || items[0].SortOrder != 0 || items[1].SortOrder != 1 {
		t.Errorf("items=%+v, want Empanada at 0, Provoleta at 1", items)
	}

	// Referential integrity: every item carries its category's restaurant.
	var all []models.MenuItem
	db.Find(&all)
	for _, it := range all {
		var cat models.MenuCategory
		if err := db.First(&cat, it.CategoryID).Error; err != nil {
			t.Fatalf("category %d: %v", it.CategoryID, err)
		}
		if it.RestaurantID != cat.RestaurantID {
			t.Errorf("item %d restaurant_id=%d, category's=%d", it.ID, it.RestaurantID, cat.RestaurantID)
		}
	}
}

func TestPublishMenuSlugConflictRetries(t *testing.T) {
	db := newTestDB(t)
	first := seedOwner(t, db, "pro")
	second := seedOwner(t, db, "unlimited")
	quota := NewQuotaGuard(db, newTestLogger())
	pub := NewPublisher(db, quota, NewLedger(db, newTestLogger()), newTestLogger())
	ctx := context.Background()

	draft := MenuDraft{Restaurant: RestaurantInfo{Name: "Don Pepe"}}
	r1, err := pub.PublishMenu(ctx, first.ID, draft)
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	r2, err := pub.PublishMenu(ctx, second.ID, draft)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if r1.Restaurant.Slug != "don-pepe" || r2.Restaurant.Slug != "don-pepe-2" {
		t.Errorf("slugs=%q,%q, want don-pepe and don-pepe-2", r1.Restaurant.Slug, r2.Restaurant.Slug)
	}
}

func TestPublishMenuInvalidDrafts(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "pro")
	quota := NewQuotaGuard(db, newTestLogger())
	pub := NewPublisher(db, quota, NewLedger(db, newTestLogger()), newTestLogger())
	ctx := context.Background()

	cases := []struct {
		name  string
		draft MenuDraft
	}{
		{name: "empty_restaurant_name", draft: MenuDraft{Restaurant: RestaurantInfo{Name: "  "}}},
		{
			name: "negative_price",
			draft: MenuDraft{
				Restaurant: RestaurantInfo{Name: "Bar 42"},
				Categories: []CategoryDraft{{Name: "Tragos", Items: []ItemDraft{{Name: "Fernet", Price: -1}}}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pub.PublishMenu(ctx, owner.ID, tc.draft)
			var vErr *DraftValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err=%v, want DraftValidationError", err)
			}
			var restaurants int64
			db.Model(&models.Restaurant{}).Count(&restaurants)
			if restaurants != 0 {
				t.Fatalf("restaurants=%d, invalid draft must write nothing", restaurants)
			}
		})
	}
}

func TestPublishMenuPartialFailureSurfacesWarnings(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "pro")
	quota := NewQuotaGuard(db, newTestLogger())
	pub := NewPublisher(db, quota, NewLedger(db, newTestLogger()), newTestLogger())

	// Item inserts will fail while restaurant and categories still land.
	if err := db.Migrator().DropTable(&models.MenuItem{}); err != nil {
		t.Fatalf("drop items table: %v", err)
	}

	result, err := pub.PublishMenu(context.Background(), owner.ID, pizzeriaDraft())
	if err != nil {
		t.Fatalf("publish should stay successful after item failures: %v", err)
	}
	if result.Restaurant == nil || result.CategoriesCreated != 1 {
		t.Fatalf("result=%+v, want restaurant plus one category", result)
	}
	if result.ItemsCreated != 0 || len(result.Warnings) != 1 {
		t.Fatalf("items=%d warnings=%v, want 0 items and 1 warning", result.ItemsCreated, result.Warnings)
	}
	if result.Warnings[0].Kind != "item" || result.Warnings[0].Name != "Pizza Margherita" {
		t.Errorf("warning=%+v, want the failed item named", result.Warnings[0])
	}
}
