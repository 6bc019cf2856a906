package repository

import (
	"context"
	"errors"

	"agora/internal/models"

	"gorm.io/gorm"
)

// BidRepository defines persistence operations for bids.
type BidRepository interface {
	Create(ctx context.Context, bid *models.Bid) error
	Highest(ctx context.Context, listingID uint) (*models.Bid, error)
	HighestByBidder(ctx context.Context, listingID, bidderID uint) (*models.Bid, error)
	ListByListing(ctx context.Context, listingID uint) ([]models.Bid, error)
	BidderIDs(ctx context.Context, listingID uint) ([]uint, error)
	List(ctx context.Context, limit, offset int) ([]models.Bid, error)
}

type bidRepository struct {
	db *gorm.DB
}

// NewBidRepository creates a new bid repository
func NewBidRepository(db *gorm.DB) BidRepository {
	return &bidRepository{db: db}
}

func (r *bidRepository) Create(ctx context.Context, bid *models.Bid) error {
	if err := r.db.WithContext(ctx).Omit("Bidder", "Listing").Create(bid).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Highest returns the top bid on the listing, or nil when there are none.
func (r *bidRepository) Highest(ctx context.Context, listingID uint) (*models.Bid, error) {
	return r.first(r.db.WithContext(ctx).Where("listing_id = ?", listingID))
}

// HighestByBidder returns the bidder's top bid on the listing, or nil.
func (r *bidRepository) HighestByBidder(ctx context.Context, listingID, bidderID uint) (*models.Bid, error) {
	return r.first(r.db.WithContext(ctx).Where("listing_id = ? AND bidder_id = ?", listingID, bidderID))
}

func (r *bidRepository) first(q *gorm.DB) (*models.Bid, error) {
	var bid models.Bid
	err := q.Preload("Bidder").Order("amount DESC, id ASC").First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &bid, nil
}

// ListByListing returns the listing's bids, highest first.
func (r *bidRepository) ListByListing(ctx context.Context, listingID uint) ([]models.Bid, error) {
	bids := []models.Bid{}
	if err := r.db.WithContext(ctx).
		Preload("Bidder").
		Where("listing_id = ?", listingID).
		Order("amount DESC, id ASC").
		Find(&bids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return bids, nil
}

func (r *bidRepository) BidderIDs(ctx context.Context, listingID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("listing_id = ?", listingID).
		Distinct().
		Pluck("bidder_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *bidRepository) List(ctx context.Context, limit, offset int) ([]models.Bid, error) {
	limit, offset = clampLimit(limit, offset)
	bids := []models.Bid{}
	if err := r.db.WithContext(ctx).
		Preload("Bidder").
		Preload("Listing").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&bids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return bids, nil
}
