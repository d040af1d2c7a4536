package handlers

import (
	"net/http"
	"strconv"

	"menu-builder-api/logger"
	"menu-builder-api/models"
	"menu-builder-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PublicHandler serves unauthenticated menu reads and view tracking. These
// endpoints must stay cheap and safe to call at high frequency.
type PublicHandler struct {
	db      *gorm.DB
	tracker *services.ViewTracker
	log     *logger.Logger
}

func NewPublicHandler(db *gorm.DB, tracker *services.ViewTracker, baseLog *logger.Logger) *PublicHandler {
	return &PublicHandler{db: db, tracker: tracker, log: baseLog.With("handler", "PublicHandler")}
}

// GetMenu returns the published menu for a slug: active categories with
// available items, both in sort order.
func (h *PublicHandler) GetMenu(c *gin.Context) {
	slug := c.Param("slug")

	var restaurant models.Restaurant
	err := h.db.
		Where("slug = ? AND is_active = ?", slug, true).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order, id")
		}).
		Preload("Categories.Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_available = ?", true).Order("sort_order, id")
		}).
		First(&restaurant).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu not found"})
		return
	}

	// Fire the view counter off the read path; tracking never delays or
	// fails a menu read.
	if err := h.tracker.TrackMenuView(c.Request.Context(), slug, viewMeta(c)); err != nil {
		h.log.Warn("menu view tracking failed", "slug", slug, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant": gin.H{
			"name":        restaurant.Name,
			"slug":        restaurant.Slug,
			"description": restaurant.Description,
			"phone":       restaurant.Phone,
			"address":     restaurant.Address,
			"theme":       restaurant.ThemeID,
		},
		"categories": restaurant.Categories,
	})
}

// TrackMenuView counts a menu-level view. Always answers 204: unknown or
// archived menus are silently dropped.
func (h *PublicHandler) TrackMenuView(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.tracker.TrackMenuView(c.Request.Context(), slug, viewMeta(c)); err != nil {
		h.log.Warn("menu view tracking failed", "slug", slug, "error", err)
	}
	c.Status(http.StatusNoContent)
}

// TrackItemView counts an item-level view. Always answers 204.
func (h *PublicHandler) TrackItemView(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}
	if err := h.tracker.TrackItemView(c.Request.Context(), uint(itemID), viewMeta(c)); err != nil {
		h.log.Warn("item view tracking failed", "item_id", itemID, "error", err)
	}
	c.Status(http.StatusNoContent)
}

func viewMeta(c *gin.Context) services.ViewMeta {
	return services.ViewMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
