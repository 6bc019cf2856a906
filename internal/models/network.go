package models

import (
	"time"
)

// PostTimestampLayout is how post timestamps are rendered in API payloads.
const PostTimestampLayout = "Jan 02 2006, 03:04 PM"

// Post is a short message on the social network.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Body      string    `gorm:"type:text" json:"body"`
	Timestamp time.Time `gorm:"not null;index;autoCreateTime" json:"-"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`

	// Computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"-"`
	Liked      bool  `gorm:"->;-:migration" json:"-"`
}

// PostView is the serialized form of a post.
type PostView struct {
	ID            uint   `json:"id"`
	AuthorID      uint   `json:"author_id"`
	Author        string `json:"author"`
	Body          string `json:"body"`
	Timestamp     string `json:"timestamp"`
	NumberOfLikes int64  `json:"number_of_likes"`
	IsLiked       *bool  `json:"is_liked,omitempty"`
}

// View serializes the post. isLiked is reported only for authenticated viewers.
func (p *Post) View(authenticated bool) PostView {
	v := PostView{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		Author:        p.Author.Username,
		Body:          p.Body,
		Timestamp:     p.Timestamp.Format(PostTimestampLayout),
		NumberOfLikes: p.LikesCount,
	}
	if authenticated {
		liked := p.Liked
		v.IsLiked = &liked
	}
	return v
}

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow records that Reader reads Author.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReaderID  uint      `gorm:"not null;uniqueIndex:idx_follow_reader_author" json:"reader_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_reader_author;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}
