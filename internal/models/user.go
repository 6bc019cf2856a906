// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the identity shared by the auctions, network and mail apps.
// CreatedAt doubles as the date the account joined.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null;size:30" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	IsAdmin   bool           `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserRef is the public face of a user embedded in listings, bids and
// comments. It reads the users table but carries no contact details.
type UserRef struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `json:"username"`
	DeletedAt gorm.DeletedAt `json:"-"`
}

func (UserRef) TableName() string { return "users" }

// UserProfile is the public view of a user in the network app.
type UserProfile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Authors  int64  `json:"authors"`
	Readers  int64  `json:"readers"`

	IsFollowed     *bool `json:"is_followed,omitempty"`
	IsAuthorIsUser *bool `json:"is_author_is_user,omitempty"`
}
