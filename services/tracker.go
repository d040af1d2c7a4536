package services

import (
	"context"
	"errors"

	"menu-builder-api/logger"
	"menu-builder-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ViewMeta carries the request attributes stored with an analytics event.
type ViewMeta struct {
	IP        string
	UserAgent string
	Referrer  string
}

// ViewTracker handles high-frequency public view counting. Semantics are
// at-least-once: duplicate counts from retries or bots are accepted. Views
// on inactive or unavailable targets are silently dropped.
type ViewTracker struct {
	db    *gorm.DB
	quota *QuotaGuard
	log   *logger.Logger
}

func NewViewTracker(db *gorm.DB, quota *QuotaGuard, baseLog *logger.Logger) *ViewTracker {
	return &ViewTracker{db: db, quota: quota, log: baseLog.With("service", "ViewTracker")}
}

// TrackMenuView bumps the view counter of the active restaurant published
// under slug. An unknown or archived slug is a successful no-op.
func (t *ViewTracker) TrackMenuView(ctx context.Context, slug string, meta ViewMeta) error {
	var restaurant models.Restaurant
	err := t.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	err = t.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ?", restaurant.ID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return err
	}

	t.recordEvent(ctx, restaurant.ID, nil, meta)
	if err := t.quota.RecordUsage(ctx, restaurant.OwnerID, &restaurant.ID, MetricMenuViews, 1); err != nil {
		t.log.Warn("menu view usage record failed", "restaurant_id", restaurant.ID, "error", err)
	}
	return nil
}

// TrackItemView bumps an item's view counter when both the item is available
// and its restaurant is active; otherwise it is a successful no-op.
func (t *ViewTracker) TrackItemView(ctx context.Context, itemID uint, meta ViewMeta) error {
	var item models.MenuItem
	err := t.db.WithContext(ctx).
		Where("id = ? AND is_available = ?", itemID, true).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var active int64
	err = t.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ? AND is_active = ?", item.RestaurantID, true).
		Count(&active).Error
	if err != nil {
		return err
	}
	if active == 0 {
		return nil
	}

	err = t.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ?", item.ID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return err
	}

	t.recordEvent(ctx, item.RestaurantID, &item.ID, meta)
	return nil
}

// recordEvent writes the best-effort analytics row; failures never propagate.
func (t *ViewTracker) recordEvent(ctx context.Context, restaurantID uint, itemID *uint, meta ViewMeta) {
	event := models.MenuViewEvent{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		MenuItemID:   itemID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Referrer:     meta.Referrer,
	}
	if err := t.db.WithContext(ctx).Create(&event).Error; err != nil {
		t.log.Warn("analytics event insert failed", "restaurant_id", restaurantID, "error", err)
	}
}
