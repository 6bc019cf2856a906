package repository

import (
	"context"
	"database/sql"

	"agora/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a feed query. Zero values mean "no restriction".
type PostFilter struct {
	// StartsWith pins the feed to posts with id <= StartsWith.
	StartsWith uint
	AuthorID   uint
	// FollowedBy keeps only posts whose author is read by this user.
	FollowedBy uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	UpdateBody(ctx context.Context, id uint, body string) error
	Feed(ctx context.Context, filter PostFilter, limit, offset int, currentUserID uint) ([]models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	LatestID(ctx context.Context) (uint, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	if err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("Author").
		First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundMessage("Post not found."))
	}
	return &post, nil
}

func (r *postRepository) UpdateBody(ctx context.Context, id uint, body string) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("body", body)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundMessage("Post not found.")
	}
	return nil
}

func (r *postRepository) filtered(db *gorm.DB, f PostFilter) *gorm.DB {
	db = db.Where("posts.id <= ?", f.StartsWith)
	if f.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.FollowedBy != 0 {
		db = db.Where("posts.author_id IN (?)",
			r.db.Model(&models.Follow{}).Select("author_id").Where("reader_id = ?", f.FollowedBy))
	}
	return db
}

// Feed returns one page of posts, newest first.
func (r *postRepository) Feed(ctx context.Context, filter PostFilter, limit, offset int, currentUserID uint) ([]models.Post, error) {
	posts := []models.Post{}
	q := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).Preload("Author")
	if err := r.filtered(q, filter).
		Order("posts.timestamp DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	if err := r.filtered(r.db.WithContext(ctx).Model(&models.Post{}), filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// LatestID returns the highest post id, or 0 when there are no posts.
func (r *postRepository) LatestID(ctx context.Context) (uint, error) {
	var latest sql.NullInt64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Select("MAX(id)").Row().Scan(&latest); err != nil {
		return 0, models.NewInternalError(err)
	}
	if !latest.Valid {
		return 0, nil
	}
	return uint(latest.Int64), nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = clampLimit(limit, offset)
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applyPostDetails adds the like count and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", currentUserID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	like := models.Like{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
