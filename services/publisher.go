package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"menu-builder-api/logger"
	"menu-builder-api/models"
	"menu-builder-api/slugify"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// slugRetries bounds how many times a publish retries after losing a slug
// race at write time.
const slugRetries = 5

// MenuDraft is the wizard's submission. Client-local category/item ids are
// discarded; server-generated ids are authoritative.
type MenuDraft struct {
	Restaurant RestaurantInfo  `json:"restaurant" binding:"required"`
	Categories []CategoryDraft `json:"categories"`
}

type RestaurantInfo struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Theme       string `json:"theme"`
}

type CategoryDraft struct {
	ID    int64       `json:"id"` // client-local, ignored
	Name  string      `json:"name"`
	Icon  string      `json:"icon"`
	Items []ItemDraft `json:"items"`
}

type ItemDraft struct {
	ID          int64   `json:"id"` // client-local, ignored
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Featured    bool    `json:"featured"`
}

// PublishWarning reports a category or item that failed to persist during an
// otherwise successful publish.
type PublishWarning struct {
	Kind  string `json:"kind"` // "category" or "item"
	Name  string `json:"name"`
	Error string `json:"error"`
}

type PublishResult struct {
	Restaurant        *models.Restaurant `json:"restaurant"`
	CategoriesCreated int                `json:"categories_created"`
	ItemsCreated      int                `json:"items_created"`
	Warnings          []PublishWarning   `json:"warnings,omitempty"`
}

// Publisher turns an accepted menu draft into persisted rows: restaurant,
// then categories, then items, in draft order. The steps are individually
// retryable, not one transaction; once the restaurant row is committed the
// publish counts as successful even if children fail (reported as warnings).
type Publisher struct {
	db     *gorm.DB
	quota  *QuotaGuard
	ledger *Ledger
	log    *logger.Logger
}

func NewPublisher(db *gorm.DB, quota *QuotaGuard, ledger *Ledger, baseLog *logger.Logger) *Publisher {
	return &Publisher{db: db, quota: quota, ledger: ledger, log: baseLog.With("service", "Publisher")}
}

// PublishMenu validates the draft, enforces the restaurant quota, allocates
// a slug and persists the whole aggregate. Pre-write failures leave zero
// persisted state.
func (p *Publisher) PublishMenu(ctx context.Context, ownerID uint, draft MenuDraft) (*PublishResult, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	// Categories with no items never reach storage.
	categories := nonEmptyCategories(draft.Categories)

	status, err := p.quota.CheckLimit(ctx, ownerID, KindRestaurants)
	if err != nil {
		return nil, err
	}
	if !status.WithinLimit {
		return nil, &QuotaExceededError{Resource: string(KindRestaurants), Current: status.Current, Limit: status.Limit}
	}

	restaurant, err := p.createRestaurant(ctx, ownerID, draft.Restaurant)
	if err != nil {
		return nil, err
	}
	log := p.log.With("owner_id", ownerID, "restaurant_id", restaurant.ID, "slug", restaurant.Slug)

	result := &PublishResult{Restaurant: restaurant}
	for ci, cd := range categories {
		category := models.MenuCategory{
			RestaurantID: restaurant.ID,
			Name:         cd.Name,
			Icon:         cd.Icon,
			SortOrder:    ci,
			IsActive:     true,
		}
		if err := p.db.WithContext(ctx).Create(&category).Error; err != nil {
			// A failed category does not abort the publish.
			log.Error("category insert failed", "category", cd.Name, "error", err)
			result.Warnings = append(result.Warnings, PublishWarning{Kind: "category", Name: cd.Name, Error: err.Error()})
			continue
		}
		result.CategoriesCreated++

		for ii, id := range cd.Items {
			item := models.MenuItem{
				RestaurantID: restaurant.ID,
				CategoryID:   category.ID,
				Name:         id.Name,
				Description:  id.Description,
				Price:        id.Price,
				IsFeatured:   id.Featured,
				IsAvailable:  true,
				SortOrder:    ii,
			}
			if err := p.db.WithContext(ctx).Create(&item).Error; err != nil {
				log.Error("item insert failed", "item", id.Name, "error", err)
				result.Warnings = append(result.Warnings, PublishWarning{Kind: "item", Name: id.Name, Error: err.Error()})
				continue
			}
			result.ItemsCreated++
		}
	}

	p.recordPublish(ctx, ownerID, restaurant, result, log)
	return result, nil
}

// createRestaurant allocates a slug and writes the restaurant row, retrying
// allocation when a concurrent publish wins the same slug at write time.
func (p *Publisher) createRestaurant(ctx context.Context, ownerID uint, info RestaurantInfo) (*models.Restaurant, error) {
	alloc := slugify.NewAllocator(func(slug string) (bool, error) {
		return p.slugExists(ctx, slug)
	})

	var lastErr error
	for attempt := 0; attempt < slugRetries; attempt++ {
		slug, err := alloc.Allocate(info.Name)
		if err != nil {
			return nil, err
		}
		restaurant := models.Restaurant{
			OwnerID:     ownerID,
			Name:        strings.TrimSpace(info.Name),
			Slug:        slug,
			Description: info.Description,
			Phone:       info.Phone,
			Address:     info.Address,
			ThemeID:     info.Theme,
			IsActive:    true,
		}
		err = p.db.WithContext(ctx).Create(&restaurant).Error
		if err == nil {
			return &restaurant, nil
		}
		if !isDuplicateKey(err) {
			return nil, &PublishFailedError{Reason: "restaurant insert failed", Err: err}
		}
		// Slug race lost; the probe will now see the winner's row.
		p.log.Warn("slug conflict, retrying allocation", "slug", slug, "attempt", attempt+1)
		lastErr = err
	}
	return nil, &PublishFailedError{Reason: "slug retry budget exhausted", Err: lastErr}
}

// recordPublish emits the audit entry and advances usage counters. All of it
// is auxiliary to the already-committed publish: failures are logged only.
func (p *Publisher) recordPublish(ctx context.Context, ownerID uint, r *models.Restaurant, result *PublishResult, log *logger.Logger) {
	rid := r.ID
	meta, _ := metadataJSON(map[string]interface{}{
		"theme":      r.ThemeID,
		"categories": result.CategoriesCreated,
		"items":      result.ItemsCreated,
	})
	entry := &models.ActivityLog{
		UserID:        ownerID,
		EventType:     EventMenuCreated,
		EventCategory: "menu",
		ResourceID:    &rid,
		ResourceType:  "restaurant",
		Metadata:      meta,
	}
	if err := p.ledger.Record(ctx, entry); err != nil {
		log.Error("activity record failed", "error", err)
	}

	type usage struct {
		metric string
		delta  int
	}
	for _, u := range []usage{
		{MetricCurrentRestaurants, 1},
		{MetricCategoriesCreated, result.CategoriesCreated},
		{MetricMenuItemsCreated, result.ItemsCreated},
		{MetricCurrentItems, result.ItemsCreated},
	} {
		if err := p.quota.RecordUsage(ctx, ownerID, &rid, u.metric, u.delta); err != nil {
			log.Error("usage record failed", "metric", u.metric, "error", err)
		}
	}
}

func (p *Publisher) slugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := p.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("slug = ?", slug).
		Count(&n).Error
	return n > 0, err
}

func validateDraft(draft MenuDraft) error {
	if strings.TrimSpace(draft.Restaurant.Name) == "" {
		return &DraftValidationError{Field: "restaurant.name", Msg: "must not be empty"}
	}
	for _, cd := range draft.Categories {
		if strings.TrimSpace(cd.Name) == "" && len(cd.Items) > 0 {
			return &DraftValidationError{Field: "categories.name", Msg: "must not be empty"}
		}
		for _, id := range cd.Items {
			if strings.TrimSpace(id.Name) == "" {
				return &DraftValidationError{Field: "items.name", Msg: "must not be empty"}
			}
			if id.Price < 0 {
				return &DraftValidationError{Field: "items.price", Msg: "must not be negative"}
			}
		}
	}
	return nil
}

func nonEmptyCategories(in []CategoryDraft) []CategoryDraft {
	out := make([]CategoryDraft, 0, len(in))
	for _, cd := range in {
		if len(cd.Items) > 0 {
			out = append(out, cd)
		}
	}
	return out
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Fallback for drivers without error translation.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func metadataJSON(v map[string]interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	return datatypes.JSON(b), err
}
