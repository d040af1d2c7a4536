package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"menu-builder-api/logger"
	"menu-builder-api/middleware"
	"menu-builder-api/models"
	"menu-builder-api/services"
	"menu-builder-api/slugify"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RestaurantHandler serves the owner-facing publishing, quota and activity
// endpoints.
type RestaurantHandler struct {
	db        *gorm.DB
	publisher *services.Publisher
	quota     *services.QuotaGuard
	ledger    *services.Ledger
	log       *logger.Logger
}

func NewRestaurantHandler(db *gorm.DB, publisher *services.Publisher, quota *services.QuotaGuard, ledger *services.Ledger, baseLog *logger.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		db:        db,
		publisher: publisher,
		quota:     quota,
		ledger:    ledger,
		log:       baseLog.With("handler", "RestaurantHandler"),
	}
}

// ── Publishing ──────────────────────────────────────────────────────────────

// PublishMenu accepts a complete menu draft from the wizard and publishes it
func (h *RestaurantHandler) PublishMenu(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var draft services.MenuDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.publisher.PublishMenu(c.Request.Context(), ownerID, draft)
	if err != nil {
		status, body := publishErrorResponse(err)
		c.JSON(status, body)
		return
	}

	resp := gin.H{
		"message": "Menu published",
		"restaurant": gin.H{
			"id":    result.Restaurant.ID,
			"name":  result.Restaurant.Name,
			"slug":  result.Restaurant.Slug,
			"theme": result.Restaurant.ThemeID,
		},
		"categories_created": result.CategoriesCreated,
		"items_created":      result.ItemsCreated,
	}
	if len(result.Warnings) > 0 {
		resp["warnings"] = result.Warnings
	}
	c.JSON(http.StatusCreated, resp)
}

func publishErrorResponse(err error) (int, gin.H) {
	var quotaErr *services.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return http.StatusForbidden, gin.H{
			"error":    "Plan limit reached",
			"resource": quotaErr.Resource,
			"current":  quotaErr.Current,
			"limit":    quotaErr.Limit,
		}
	}
	var draftErr *services.DraftValidationError
	if errors.As(err, &draftErr) {
		return http.StatusBadRequest, gin.H{"error": draftErr.Error()}
	}
	if errors.Is(err, slugify.ErrInvalidName) {
		return http.StatusBadRequest, gin.H{"error": "Restaurant name cannot be turned into a URL slug"}
	}
	return http.StatusInternalServerError, gin.H{"error": "Failed to publish menu"}
}

// ── Restaurant management ───────────────────────────────────────────────────

type UpdateRestaurantRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	Theme          *string `json:"theme"`
	RegenerateSlug bool    `json:"regenerate_slug"`
}

// UpdateRestaurant updates profile fields; the slug only changes when the
// owner explicitly asks for regeneration from the (possibly new) name.
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND owner_id = ?", c.Param("id"), ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	old := restaurant
	update := map[string]interface{}{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Phone != nil {
		update["phone"] = *req.Phone
	}
	if req.Address != nil {
		update["address"] = *req.Address
	}
	if req.Theme != nil {
		update["theme_id"] = *req.Theme
	}
	if req.RegenerateSlug {
		name := restaurant.Name
		if req.Name != nil {
			name = *req.Name
		}
		alloc := slugify.NewAllocator(func(slug string) (bool, error) {
			var n int64
			err := h.db.Model(&models.Restaurant{}).
				Where("slug = ? AND id <> ?", slug, restaurant.ID).
				Count(&n).Error
			return n > 0, err
		})
		slug, err := alloc.Allocate(name)
		if err != nil {
			if errors.Is(err, slugify.ErrInvalidName) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be turned into a URL slug"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to allocate slug"})
			return
		}
		update["slug"] = slug
	}
	if len(update) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Nothing to update", "restaurant": restaurant})
		return
	}

	if err := h.db.Model(&restaurant).Updates(update).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update restaurant"})
		return
	}

	h.recordChange(c, ownerID, services.EventRestaurantUpdated, "restaurant", restaurant.ID, gin.H{
		"name": old.Name, "slug": old.Slug, "theme": old.ThemeID,
	}, gin.H{
		"name": restaurant.Name, "slug": restaurant.Slug, "theme": restaurant.ThemeID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// ArchiveRestaurant soft-deletes a restaurant. Rows are never hard-deleted.
func (h *RestaurantHandler) ArchiveRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND owner_id = ?", c.Param("id"), ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	if !restaurant.IsActive {
		c.JSON(http.StatusOK, gin.H{"message": "Restaurant already archived"})
		return
	}

	if err := h.db.Model(&restaurant).UpdateColumn("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive restaurant"})
		return
	}

	h.recordChange(c, ownerID, services.EventRestaurantArchived, "restaurant", restaurant.ID,
		gin.H{"is_active": true}, gin.H{"is_active": false})
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant archived"})
}

type ItemAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// SetItemAvailability toggles whether an item shows on the public menu
func (h *RestaurantHandler) SetItemAvailability(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var item models.MenuItem
	if err := h.db.First(&item, c.Param("itemId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND owner_id = ?", item.RestaurantID, ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't own this menu item"})
		return
	}

	var req ItemAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	was := item.IsAvailable
	if err := h.db.Model(&item).UpdateColumn("is_available", *req.IsAvailable).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update menu item"})
		return
	}

	h.recordChange(c, ownerID, services.EventItemUpdated, "menu_item", item.ID,
		gin.H{"is_available": was}, gin.H{"is_available": *req.IsAvailable})
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// ── Quota & activity ────────────────────────────────────────────────────────

// GetQuota reports the caller's standing against their plan limit
func (h *RestaurantHandler) GetQuota(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	kind := services.ResourceKind(c.DefaultQuery("resource", string(services.KindRestaurants)))
	if kind != services.KindRestaurants && kind != services.KindMenuItems {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource must be 'restaurants' or 'menu_items'"})
		return
	}

	status, err := h.quota.CheckLimit(c.Request.Context(), ownerID, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read quota"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"resource":      kind,
		"within_limits": status.WithinLimit,
		"current":       status.Current,
		"limit":         status.Limit,
	})
}

// GetActivity returns the caller's activity log, newest first
func (h *RestaurantHandler) GetActivity(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	filters := services.ActivityFilters{
		Category:     c.Query("category"),
		ResourceType: c.Query("resource_type"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}
	entries, total, err := h.ledger.Query(c.Request.Context(), ownerID, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
		"entries":   entries,
	})
}

// recordChange appends an audit entry; failures are logged, never surfaced.
func (h *RestaurantHandler) recordChange(c *gin.Context, ownerID uint, eventType, resourceType string, resourceID uint, oldValues, newValues gin.H) {
	oldJSON, _ := json.Marshal(oldValues)
	newJSON, _ := json.Marshal(newValues)
	entry := &models.ActivityLog{
		UserID:        ownerID,
		EventType:     eventType,
		EventCategory: "menu",
		ResourceID:    &resourceID,
		ResourceType:  resourceType,
		OldValues:     datatypes.JSON(oldJSON),
		NewValues:     datatypes.JSON(newJSON),
	}
	if err := h.ledger.Record(c.Request.Context(), entry); err != nil {
		h.log.Error("activity record failed", "event_type", eventType, "error", err)
	}
}
