package models

import (
	"time"
)

// Category groups listings. A listing without a category belongs to the
// implicit "No category" bucket.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null;size:60" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Listing is an item up for auction.
type Listing struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OwnerID       uint      `gorm:"not null;index" json:"owner_id"`
	Title         string    `gorm:"not null;size:200" json:"title"`
	Description   string    `gorm:"not null;size:1000" json:"description"`
	StartingPrice int64     `gorm:"not null" json:"starting_price"`
	ImageURL      string    `gorm:"size:200" json:"image_url"`
	CategoryID    *uint     `gorm:"index" json:"category_id"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Owner    UserRef   `gorm:"foreignKey:OwnerID" json:"owner"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// LastBidAmount is the highest bid, computed at query time.
	LastBidAmount *int64 `gorm:"->;-:migration" json:"last_bid_amount"`
}

// CurrentPrice is the amount a new bid has to exceed.
func (l *Listing) CurrentPrice() int64 {
	if l.LastBidAmount != nil {
		return *l.LastBidAmount
	}
	return l.StartingPrice
}

// Bid is an offer on a listing.
type Bid struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	BidderID  uint      `gorm:"not null;index" json:"bidder_id"`
	CreatedAt time.Time `json:"created_at"`

	Bidder  UserRef  `gorm:"foreignKey:BidderID" json:"bidder"`
	Listing *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

// Comment is a remark left on a listing.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	Text      string    `gorm:"not null;size:200" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	Author  UserRef  `gorm:"foreignKey:AuthorID" json:"author"`
	Listing *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

// Watch puts a listing on a user's watchlist.
// The combination of UserID and ListingID must be unique.
type Watch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_watch_user_listing" json:"user_id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_watch_user_listing;index" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CategorySummary is a category with the number of active listings in it.
type CategorySummary struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	NumberOfListings int64  `json:"number_of_listings"`
}

// CategoryIndex lists every category plus the listings that have none.
type CategoryIndex struct {
	Categories                      []CategorySummary `json:"categories"`
	NumberOfListingsWithoutCategory int64             `json:"number_of_listings_without_category"`
}
