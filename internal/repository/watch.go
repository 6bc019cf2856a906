package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WatchRepository defines persistence operations for watchlists.
type WatchRepository interface {
	Add(ctx context.Context, userID, listingID uint) error
	Remove(ctx context.Context, userID, listingID uint) error
	Toggle(ctx context.Context, userID, listingID uint) (bool, error)
	IsWatching(ctx context.Context, userID, listingID uint) (bool, error)
	WatcherIDs(ctx context.Context, listingID uint) ([]uint, error)
	ReplaceWatchers(ctx context.Context, listingID uint, userIDs []uint) error
}

type watchRepository struct {
	db *gorm.DB
}

// NewWatchRepository creates a new watchlist repository
func NewWatchRepository(db *gorm.DB) WatchRepository {
	return &watchRepository{db: db}
}

func (r *watchRepository) Add(ctx context.Context, userID, listingID uint) error {
	watch := models.Watch{UserID: userID, ListingID: listingID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&watch).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *watchRepository) Remove(ctx context.Context, userID, listingID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.Watch{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Toggle removes the listing from the watchlist if present, otherwise adds it,
// and reports whether the listing is watched afterwards.
func (r *watchRepository) Toggle(ctx context.Context, userID, listingID uint) (bool, error) {
	watching := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&models.Watch{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		watching = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Watch{UserID: userID, ListingID: listingID}).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return watching, nil
}

func (r *watchRepository) IsWatching(ctx context.Context, userID, listingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Watch{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *watchRepository) WatcherIDs(ctx context.Context, listingID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Watch{}).
		Where("listing_id = ?", listingID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ReplaceWatchers makes userIDs the exact watcher set of the listing.
func (r *watchRepository) ReplaceWatchers(ctx context.Context, listingID uint, userIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", listingID).Delete(&models.Watch{}).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		watches := make([]models.Watch, 0, len(userIDs))
		for _, id := range userIDs {
			watches = append(watches, models.Watch{UserID: id, ListingID: listingID})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&watches).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
