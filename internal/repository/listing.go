package repository

import (
	"context"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// ListingRepository defines persistence operations for auction listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Listing, error)
	ListActive(ctx context.Context) ([]models.Listing, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]models.Listing, error)
	ListWatched(ctx context.Context, userID uint) ([]models.Listing, error)
	List(ctx context.Context, limit, offset int) ([]models.Listing, error)
	Close(ctx context.Context, id uint) error
	// Transaction runs fn with repositories bound to a single database transaction.
	Transaction(ctx context.Context, fn func(listings ListingRepository, bids BidRepository) error) error
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// applyListingDetails adds the highest bid as last_bid_amount.
func applyListingDetails(db *gorm.DB) *gorm.DB {
	return db.Select("listings.*, " +
		"(SELECT MAX(bids.amount) FROM bids WHERE bids.listing_id = listings.id) AS last_bid_amount")
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Omit("Owner", "Category").Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListings(ctx)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := applyListingDetails(r.db.WithContext(ctx)).
		Preload("Owner").
		Preload("Category").
		First(&listing, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundMessage("Listing not found."))
	}
	return &listing, nil
}

// GetForUpdate loads the listing and, on Postgres, locks its row until the
// surrounding transaction ends.
func (r *listingRepository) GetForUpdate(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := forUpdate(r.db.WithContext(ctx)).First(&listing, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundMessage("Listing not found."))
	}
	return &listing, nil
}

// ListActive returns open listings, newest first. Cached until any listing changes.
func (r *listingRepository) ListActive(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := cache.Aside(ctx, cache.ActiveListingsKey, &listings, cache.ListingsTTL, func() error {
		if err := applyListingDetails(r.db.WithContext(ctx)).
			Preload("Owner").
			Preload("Category").
			Where("listings.is_active = ?", true).
			Order("listings.id DESC").
			Find(&listings).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// ListByCategory returns active listings in the category; 0 selects listings without one.
func (r *listingRepository) ListByCategory(ctx context.Context, categoryID uint) ([]models.Listing, error) {
	q := applyListingDetails(r.db.WithContext(ctx)).
		Preload("Owner").
		Where("listings.is_active = ?", true)
	if categoryID == 0 {
		q = q.Where("listings.category_id IS NULL")
	} else {
		q = q.Where("listings.category_id = ?", categoryID)
	}

	listings := []models.Listing{}
	if err := q.Order("listings.id DESC").Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) ListWatched(ctx context.Context, userID uint) ([]models.Listing, error) {
	listings := []models.Listing{}
	if err := applyListingDetails(r.db.WithContext(ctx)).
		Preload("Owner").
		Preload("Category").
		Joins("JOIN watches ON watches.listing_id = listings.id").
		Where("watches.user_id = ?", userID).
		Order("watches.created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) List(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	limit, offset = clampLimit(limit, offset)
	listings := []models.Listing{}
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Category").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) Close(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundMessage("Listing not found.")
	}
	cache.InvalidateListings(ctx)
	return nil
}

func (r *listingRepository) Transaction(ctx context.Context, fn func(listings ListingRepository, bids BidRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&listingRepository{db: tx}, &bidRepository{db: tx})
	})
	if err != nil {
		return notFoundOr(err, models.NewNotFoundMessage("Listing not found."))
	}
	cache.InvalidateListings(ctx)
	return nil
}
