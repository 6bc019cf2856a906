package repository

import (
	"context"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for listing categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Index(ctx context.Context) (*models.CategoryIndex, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Category already exists.")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateListings(ctx)
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("Category", id))
	}
	return &category, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundMessage("Category "+name+" not found"))
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

// Index counts active listings per category. Cached until a listing or category changes.
func (r *categoryRepository) Index(ctx context.Context) (*models.CategoryIndex, error) {
	var index models.CategoryIndex
	err := cache.Aside(ctx, cache.CategorySummariesKey, &index, cache.ListingsTTL, func() error {
		summaries := []models.CategorySummary{}
		if err := r.db.WithContext(ctx).
			Model(&models.Category{}).
			Select("categories.id, categories.name, " +
				"(SELECT COUNT(*) FROM listings WHERE listings.category_id = categories.id AND listings.is_active = ?) AS number_of_listings", true).
			Order("categories.name ASC").
			Scan(&summaries).Error; err != nil {
			return models.NewInternalError(err)
		}

		var without int64
		if err := r.db.WithContext(ctx).
			Model(&models.Listing{}).
			Where("category_id IS NULL AND is_active = ?", true).
			Count(&without).Error; err != nil {
			return models.NewInternalError(err)
		}

		index = models.CategoryIndex{Categories: summaries, NumberOfListingsWithoutCategory: without}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &index, nil
}
