package services

import (
	"context"
	"testing"

	"menu-builder-api/models"
)

func setupTrackedMenu(t *testing.T) (tracker *ViewTracker, restaurant *models.Restaurant, item *models.MenuItem, ctx context.Context, read func()) {
	t.Helper()
	db := newTestDB(t)
	owner := seedOwner(t, db, "pro")
	quota := NewQuotaGuard(db, newTestLogger())
	pub := NewPublisher(db, quota, NewLedger(db, newTestLogger()), newTestLogger())
	ctx = context.Background()

	result, err := pub.PublishMenu(ctx, owner.ID, pizzeriaDraft())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	restaurant = result.Restaurant

	item = &models.MenuItem{}
	if err := db.Where("restaurant_id = ?", restaurant.ID).First(item).Error; err != nil {
		t.Fatalf("item: %v", err)
	}

	tracker = NewViewTracker(db, quota, newTestLogger())
	read = func() {
		t.Helper()
		if err := db.First(restaurant, restaurant.ID).Error; err != nil {
			t.Fatalf("reload restaurant: %v", err)
		}
		if err := db.First(item, item.ID).Error; err != nil {
			t.Fatalf("reload item: %v", err)
		}
	}
	return tracker, restaurant, item, ctx, read
}

func TestTrackMenuViewIncrementsAndRecords(t *testing.T) {
	tracker, restaurant, _, ctx, reload := setupTrackedMenu(t)

	meta := ViewMeta{IP: "203.0.113.9", UserAgent: "test-agent", Referrer: "https://example.com"}
	for i := 0; i < 3; i++ {
		if err := tracker.TrackMenuView(ctx, restaurant.Slug, meta); err != nil {
			t.Fatalf("TrackMenuView: %v", err)
		}
	}
	reload()
	if restaurant.Views != 3 {
		t.Errorf("views=%d, want 3", restaurant.Views)
	}

	var events int64
	tracker.db.Model(&models.MenuViewEvent{}).Where("restaurant_id = ?", restaurant.ID).Count(&events)
	if events != 3 {
		t.Errorf("analytics events=%d, want 3", events)
	}

	var period models.UsagePeriod
	if err := tracker.db.Where("user_id = ?", restaurant.OwnerID).First(&period).Error; err != nil {
		t.Fatalf("usage period: %v", err)
	}
	if period.MenuViews != 3 {
		t.Errorf("menu_views=%d, want 3", period.MenuViews)
	}
}

func TestTrackMenuViewUnknownSlugIsNoOp(t *testing.T) {
	tracker, _, _, ctx, _ := setupTrackedMenu(t)
	if err := tracker.TrackMenuView(ctx, "no-such-menu", ViewMeta{}); err != nil {
		t.Fatalf("unknown slug must be a successful no-op: %v", err)
	}
}

func TestTrackItemViewIncrements(t *testing.T) {
	tracker, _, item, ctx, reload := setupTrackedMenu(t)

	if err := tracker.TrackItemView(ctx, item.ID, ViewMeta{IP: "203.0.113.9"}); err != nil {
		t.Fatalf("TrackItemView: %v", err)
	}
	reload()
	if item.Views != 1 {
		t.Errorf("views=%d, want 1", item.Views)
	}
}

func TestTrackItemViewUnavailableItemIsNoOp(t *testing.T) {
	tracker, _, item, ctx, reload := setupTrackedMenu(t)

	if err := tracker.db.Model(item).UpdateColumn("is_available", false).Error; err != nil {
		t.Fatalf("mark unavailable: %v", err)
	}
	if err := tracker.TrackItemView(ctx, item.ID, ViewMeta{}); err != nil {
		t.Fatalf("unavailable target must be a successful no-op: %v", err)
	}
	reload()
	if item.Views != 0 {
		t.Errorf("views=%d, want unchanged 0", item.Views)
	}
}

func TestTrackItemViewArchivedRestaurantIsNoOp(t *testing.T) {
	tracker, restaurant, item, ctx, reload := setupTrackedMenu(t)

	if err := tracker.db.Model(restaurant).UpdateColumn("is_active", false).Error; err != nil {
		t.Fatalf("archive restaurant: %v", err)
	}
	if err := tracker.TrackItemView(ctx, item.ID, ViewMeta{}); err != nil {
		t.Fatalf("archived restaurant must be a successful no-op: %v", err)
	}
	reload()
	if item.Views != 0 {
		t.Errorf("views=%d, want unchanged 0", item.Views)
	}

	if err := tracker.TrackMenuView(ctx, restaurant.Slug, ViewMeta{}); err != nil {
		t.Fatalf("archived menu view must be a successful no-op: %v", err)
	}
}
