package models

import "time"

type Restaurant struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OwnerID     uint           `json:"owner_id" gorm:"not null;index"`
	Owner       User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name        string         `json:"name" gorm:"not null"`
	Slug        string         `json:"slug" gorm:"uniqueIndex;not null"`
	Description string         `json:"description"`
	Phone       string         `json:"phone"`
	Address     string         `json:"address"`
	ThemeID     string         `json:"theme_id"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	Views       int64          `json:"views" gorm:"default:0"`
	Categories  []MenuCategory `json:"categories,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type MenuCategory struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RestaurantID uint       `json:"restaurant_id" gorm:"not null;index"`
	Name         string     `json:"name" gorm:"not null"`
	Icon         string     `json:"icon"`
	SortOrder    int        `json:"sort_order" gorm:"not null;default:0"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	Items        []MenuItem `json:"items,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MenuItem carries a denormalized RestaurantID that must always match its
// parent category's RestaurantID.
type MenuItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	CategoryID   uint      `json:"category_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null"`
	IsAvailable  bool      `json:"is_available" gorm:"default:true"`
	IsFeatured   bool      `json:"is_featured" gorm:"default:false"`
	SortOrder    int       `json:"sort_order" gorm:"not null;default:0"`
	Views        int64     `json:"views" gorm:"default:0"`
	Rating       float64   `json:"rating" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
