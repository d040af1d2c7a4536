package models

import "time"

// PeriodMonthly is the only accounting window this service keeps.
const PeriodMonthly = "monthly"

// UsagePeriod accumulates per-owner counters over one accounting window.
// One row per (user, period_start); counters only ever increase here —
// reconciliation on deletes happens outside this service.
type UsagePeriod struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_usage_user_period"`
	RestaurantID *uint     `json:"restaurant_id"`
	PeriodType   string    `json:"period_type" gorm:"not null;default:'monthly'"`
	PeriodStart  time.Time `json:"period_start" gorm:"not null;uniqueIndex:idx_usage_user_period"`
	PeriodEnd    time.Time `json:"period_end" gorm:"not null"`

	MenuViews               int `json:"menu_views" gorm:"default:0"`
	MenuItemsCreated        int `json:"menu_items_created" gorm:"default:0"`
	CategoriesCreated       int `json:"categories_created" gorm:"default:0"`
	CurrentItemsCount       int `json:"current_items_count" gorm:"default:0"`
	CurrentRestaurantsCount int `json:"current_restaurants_count" gorm:"default:0"`

	// Plan ceilings snapshotted when the period row is created; nil = unlimited.
	PlanLimitItems       *int `json:"plan_limit_items"`
	PlanLimitRestaurants *int `json:"plan_limit_restaurants"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
