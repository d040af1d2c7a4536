package services

import (
	"context"

	"menu-builder-api/logger"
	"menu-builder-api/models"

	"gorm.io/gorm"
)

// Activity event types emitted by this service.
const (
	EventMenuCreated        = "complete_menu_created"
	EventRestaurantUpdated  = "restaurant_updated"
	EventRestaurantArchived = "restaurant_archived"
	EventItemUpdated        = "menu_item_updated"
)

// ActivityFilters narrows and pages a ledger query.
type ActivityFilters struct {
	Category     string
	ResourceType string
	Page         int
	PageSize     int
}

// Ledger is the append-only activity log. Record failures must never fail
// the business operation that triggered them; callers log and move on.
type Ledger struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedger(db *gorm.DB, baseLog *logger.Logger) *Ledger {
	return &Ledger{db: db, log: baseLog.With("service", "Ledger")}
}

// Record appends one activity entry.
func (l *Ledger) Record(ctx context.Context, entry *models.ActivityLog) error {
	return l.db.WithContext(ctx).Create(entry).Error
}

// Query returns an owner's activity entries, newest first, plus the total
// count for pagination.
func (l *Ledger) Query(ctx context.Context, ownerID uint, f ActivityFilters) ([]models.ActivityLog, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}

	q := l.db.WithContext(ctx).Model(&models.ActivityLog{}).Where("user_id = ?", ownerID)
	if f.Category != "" {
		q = q.Where("event_category = ?", f.Category)
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	err := q.Order("created_at DESC").Order("id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
