package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores who reads whom. A reader follows an author.
type FollowRepository interface {
	Follow(ctx context.Context, readerID, authorID uint) error
	Unfollow(ctx context.Context, readerID, authorID uint) error
	IsFollowing(ctx context.Context, readerID, authorID uint) (bool, error)
	// Counts returns how many authors the user reads and how many readers read the user.
	Counts(ctx context.Context, userID uint) (authors, readers int64, err error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, readerID, authorID uint) error {
	follow := models.Follow{ReaderID: readerID, AuthorID: authorID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, readerID, authorID uint) error {
	if err := r.db.WithContext(ctx).
		Where("reader_id = ? AND author_id = ?", readerID, authorID).
		Delete(&models.Follow{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, readerID, authorID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("reader_id = ? AND author_id = ?", readerID, authorID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	var counts struct {
		Authors int64
		Readers int64
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE reader_id = ?) AS authors,
			(SELECT COUNT(*) FROM follows WHERE author_id = ?) AS readers`,
		userID, userID,
	).Scan(&counts).Error
	if err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return counts.Authors, counts.Readers, nil
}
