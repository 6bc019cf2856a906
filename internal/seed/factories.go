// Package seed creates demo data for development databases: the fixed preset
// of categories and encyclopedia pages plus gofakeit-generated users,
// listings, bids, posts and follows.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"agora/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

const maxUsernameLen = 30

// Options controls how much data Run generates.
type Options struct {
	Users    int
	Listings int
	Posts    int
	// Seed makes a run reproducible. Zero picks a random seed.
	Seed int64
	// MaxDays bounds how far back generated timestamps go.
	MaxDays int
	// FastHash hashes the shared password with bcrypt.MinCost.
	FastHash bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db           *gorm.DB
	opts         Options
	fake         *gofakeit.Faker
	rng          *rand.Rand
	passwordHash string
}

// NewFactory creates a Factory bound to db. The shared password is hashed once.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 60
	}

	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		db:           db,
		opts:         opts,
		fake:         gofakeit.New(seed),
		rng:          rand.New(rand.NewSource(seed)),
		passwordHash: string(hash),
	}, nil
}

// pastTime returns a random moment within the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Int63n(int64(f.opts.MaxDays) * int64(24*time.Hour)))
	return time.Now().Add(-back)
}

func (f *Factory) username() string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, f.fake.Username())
	suffix := fmt.Sprintf("%d", f.fake.Number(100, 999))
	if len(name)+len(suffix) > maxUsernameLen {
		name = name[:maxUsernameLen-len(suffix)]
	}
	return name + suffix
}

// CreateUser constructs and persists a user whose password is DefaultPassword.
// Optional overrides may modify the user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := f.username()
	user := &models.User{
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Password: f.passwordHash,
	}
	user.CreatedAt = f.pastTime()

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateListing persists an active listing owned by owner. A nil category
// leaves the listing uncategorised.
func (f *Factory) CreateListing(owner *models.User, category *models.Category, overrides ...func(*models.Listing)) (*models.Listing, error) {
	listing := &models.Listing{
		OwnerID:       owner.ID,
		Title:         f.fake.ProductName(),
		Description:   f.fake.Sentence(f.fake.Number(8, 20)),
		StartingPrice: int64(f.fake.Number(5, 500)),
		ImageURL:      fmt.Sprintf("https://picsum.photos/seed/%s/640/480", f.fake.UUID()),
		IsActive:      true,
		CreatedAt:     f.pastTime(),
	}
	if category != nil {
		listing.CategoryID = &category.ID
	}

	for _, override := range overrides {
		override(listing)
	}
	if err := f.db.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// CreateBid persists a bid. Callers are responsible for keeping amounts rising.
func (f *Factory) CreateBid(listing *models.Listing, bidder *models.User, amount int64) (*models.Bid, error) {
	bid := &models.Bid{
		ListingID: listing.ID,
		BidderID:  bidder.ID,
		Amount:    amount,
	}
	if err := f.db.Create(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

// CreateComment persists a short remark on listing.
func (f *Factory) CreateComment(listing *models.Listing, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		ListingID: listing.ID,
		AuthorID:  author.ID,
		Text:      f.fake.Question(),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreatePost persists a network post by author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		AuthorID:  author.ID,
		Body:      f.fake.Sentence(f.fake.Number(5, 25)),
		Timestamp: f.pastTime(),
	}

	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Watch puts listing on user's watchlist. Repeats are ignored.
func (f *Factory) Watch(user *models.User, listing *models.Listing) error {
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Watch{UserID: user.ID, ListingID: listing.ID}).Error
}

// Follow makes reader follow author. Repeats are ignored.
func (f *Factory) Follow(reader, author *models.User) error {
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{ReaderID: reader.ID, AuthorID: author.ID}).Error
}

// Like records user's like on post. Repeats are ignored.
func (f *Factory) Like(user *models.User, post *models.Post) error {
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error
}
