package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menu-builder-api/logger"
	"menu-builder-api/models"

	"gorm.io/gorm"
)

// ResourceKind names a quota-guarded resource type.
type ResourceKind string

const (
	KindRestaurants ResourceKind = "restaurants"
	KindMenuItems   ResourceKind = "menu_items"
)

// Usage metric names, matching UsagePeriod columns.
const (
	MetricMenuViews          = "menu_views"
	MetricMenuItemsCreated   = "menu_items_created"
	MetricCategoriesCreated  = "categories_created"
	MetricCurrentItems       = "current_items_count"
	MetricCurrentRestaurants = "current_restaurants_count"
)

// QuotaStatus is a point-in-time view of an owner's standing against their
// plan limit. It does not reserve capacity.
type QuotaStatus struct {
	WithinLimit bool `json:"within_limits"`
	Current     int  `json:"current"`
	Limit       *int `json:"limit"`
}

// QuotaGuard reads usage against plan limits and records usage increments.
// Enforcement is check-then-act: concurrent creations can transiently exceed
// a limit. That is a soft cap, not a guarantee.
type QuotaGuard struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuotaGuard(db *gorm.DB, baseLog *logger.Logger) *QuotaGuard {
	return &QuotaGuard{db: db, log: baseLog.With("service", "QuotaGuard")}
}

// CheckLimit reads the owner's latest monthly usage period. A missing period
// row means no usage yet and no known limit, which never blocks creation.
func (g *QuotaGuard) CheckLimit(ctx context.Context, ownerID uint, kind ResourceKind) (QuotaStatus, error) {
	var period models.UsagePeriod
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND period_type = ?", ownerID, models.PeriodMonthly).
		Order("period_start DESC").
		First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return QuotaStatus{WithinLimit: true, Current: 0, Limit: nil}, nil
	}
	if err != nil {
		return QuotaStatus{}, err
	}

	var current int
	var limit *int
	switch kind {
	case KindRestaurants:
		current, limit = period.CurrentRestaurantsCount, period.PlanLimitRestaurants
	case KindMenuItems:
		current, limit = period.CurrentItemsCount, period.PlanLimitItems
	default:
		return QuotaStatus{}, fmt.Errorf("unknown resource kind %q", kind)
	}
	return QuotaStatus{
		WithinLimit: limit == nil || current < *limit,
		Current:     current,
		Limit:       limit,
	}, nil
}

// RecordUsage monotonically increments one counter in the owner's current
// monthly period, creating the period row if absent. Callers are responsible
// for calling it once per logical event; it is a plain add, not a dedup.
func (g *QuotaGuard) RecordUsage(ctx context.Context, ownerID uint, restaurantID *uint, metric string, delta int) error {
	if delta <= 0 {
		// Counters never decrease here.
		return nil
	}
	column, err := usageColumn(metric)
	if err != nil {
		return err
	}

	period, err := g.currentPeriod(ctx, ownerID, restaurantID)
	if err != nil {
		return err
	}

	return g.db.WithContext(ctx).
		Model(&models.UsagePeriod{}).
		Where("id = ?", period.ID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

// currentPeriod fetches or creates the period row covering now.
func (g *QuotaGuard) currentPeriod(ctx context.Context, ownerID uint, restaurantID *uint) (*models.UsagePeriod, error) {
	start, end := monthBounds(time.Now().UTC())

	var period models.UsagePeriod
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND period_start = ?", ownerID, start).
		First(&period).Error
	if err == nil {
		return &period, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	period = models.UsagePeriod{
		UserID:       ownerID,
		RestaurantID: restaurantID,
		PeriodType:   models.PeriodMonthly,
		PeriodStart:  start,
		PeriodEnd:    end,
	}
	if tier, ok := g.ownerTier(ctx, ownerID); ok {
		period.PlanLimitItems = tier.MaxMenuItems
		period.PlanLimitRestaurants = tier.MaxRestaurants
	}

	if err := g.db.WithContext(ctx).Create(&period).Error; err != nil {
		// Concurrent caller created the row first; re-read it.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = g.db.WithContext(ctx).
				Where("user_id = ? AND period_start = ?", ownerID, start).
				First(&period).Error
			if err == nil {
				return &period, nil
			}
		}
		return nil, err
	}
	g.log.Debug("usage period opened", "owner_id", ownerID, "period_start", start)
	return &period, nil
}

// ownerTier snapshots the owner's current plan ceilings. Unknown users or
// plans read as unlimited rather than blocking accounting.
func (g *QuotaGuard) ownerTier(ctx context.Context, ownerID uint) (models.PlanTier, bool) {
	var user models.User
	if err := g.db.WithContext(ctx).First(&user, ownerID).Error; err != nil {
		g.log.Warn("owner lookup failed, recording usage without limits", "owner_id", ownerID, "error", err)
		return models.PlanTier{}, false
	}
	tier, ok := models.PlanLimits[user.Plan]
	return tier, ok
}

func usageColumn(metric string) (string, error) {
	switch metric {
	case MetricMenuViews, MetricMenuItemsCreated, MetricCategoriesCreated,
		MetricCurrentItems, MetricCurrentRestaurants:
		return metric, nil
	}
	return "", fmt.Errorf("unknown usage metric %q", metric)
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
