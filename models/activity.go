package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityLog is an append-only audit record. Rows are never updated or
// deleted once written.
type ActivityLog struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"not null;index"`
	EventType     string         `json:"event_type" gorm:"not null"`
	EventCategory string         `json:"event_category" gorm:"not null;index"`
	ResourceID    *uint          `json:"resource_id"`
	ResourceType  string         `json:"resource_type"`
	OldValues     datatypes.JSON `json:"old_values,omitempty"`
	NewValues     datatypes.JSON `json:"new_values,omitempty"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
}

// MenuViewEvent is a best-effort analytics row written alongside view
// counter increments. Losing one is acceptable.
type MenuViewEvent struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	MenuItemID   *uint     `json:"menu_item_id"`
	IP           string    `json:"ip"`
	UserAgent    string    `json:"user_agent"`
	Referrer     string    `json:"referrer"`
	CreatedAt    time.Time `json:"created_at"`
}
