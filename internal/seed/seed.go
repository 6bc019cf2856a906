package seed

import (
	"fmt"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/wiki"

	"gorm.io/gorm"
)

// Summary counts what a run created.
type Summary struct {
	Users    int
	Listings int
	Bids     int
	Watches  int
	Posts    int
	Likes    int
	Follows  int
}

// Seeder fills a database with the preset and generated demo data.
type Seeder struct {
	db      *gorm.DB
	store   *wiki.Store
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder. store may be nil to skip the starter pages.
func NewSeeder(db *gorm.DB, store *wiki.Store, opts Options) (*Seeder, error) {
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, store: store, opts: opts, factory: factory}, nil
}

// ClearAll removes every row the application stores, children first.
// Encyclopedia pages are left alone.
func (s *Seeder) ClearAll() error {
	middleware.Logger.Info("clearing existing data")
	if err := s.db.Exec("DELETE FROM email_recipients").Error; err != nil {
		return fmt.Errorf("clear email_recipients: %w", err)
	}
	tables := []interface{}{
		&models.Email{},
		&models.Like{},
		&models.Follow{},
		&models.Post{},
		&models.Watch{},
		&models.Comment{},
		&models.Bid{},
		&models.Listing{},
		&models.Category{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	return nil
}

// Run applies the preset and generates the configured amount of data.
func (s *Seeder) Run() (*Summary, error) {
	preset, err := LoadPreset()
	if err != nil {
		return nil, err
	}
	if err := ApplyPreset(s.db, s.store, preset); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Order("id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	summary := &Summary{}
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	if err := s.seedAuctions(users, categories, summary); err != nil {
		return nil, err
	}
	if err := s.seedNetwork(users, summary); err != nil {
		return nil, err
	}

	middleware.Logger.Info("seed complete",
		"users", summary.Users,
		"listings", summary.Listings,
		"bids", summary.Bids,
		"posts", summary.Posts,
		"follows", summary.Follows)
	return summary, nil
}

// others returns every user except skip.
func others(users []*models.User, skip *models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != skip.ID {
			out = append(out, u)
		}
	}
	return out
}

func (s *Seeder) pick(users []*models.User) *models.User {
	return users[s.factory.rng.Intn(len(users))]
}

func (s *Seeder) seedAuctions(users []*models.User, categories []models.Category, summary *Summary) error {
	f := s.factory
	for i := 0; i < s.opts.Listings; i++ {
		owner := s.pick(users)

		var category *models.Category
		if len(categories) > 0 && f.rng.Intn(5) != 0 {
			category = &categories[f.rng.Intn(len(categories))]
		}
		listing, err := f.CreateListing(owner, category)
		if err != nil {
			return fmt.Errorf("create listing: %w", err)
		}
		summary.Listings++

		bidders := others(users, owner)
		if len(bidders) == 0 {
			continue
		}

		// Each bid beats the previous one.
		amount := listing.StartingPrice
		for b := f.rng.Intn(5); b > 0; b-- {
			amount += int64(1 + f.rng.Intn(50))
			if _, err := f.CreateBid(listing, s.pick(bidders), amount); err != nil {
				return fmt.Errorf("create bid: %w", err)
			}
			summary.Bids++
		}

		for w := f.rng.Intn(3); w > 0; w-- {
			if err := f.Watch(s.pick(bidders), listing); err != nil {
				return fmt.Errorf("create watch: %w", err)
			}
			summary.Watches++
		}

		if f.rng.Intn(3) == 0 {
			if _, err := f.CreateComment(listing, s.pick(bidders)); err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
		}

		if f.rng.Intn(6) == 0 {
			if err := s.db.Model(listing).Update("is_active", false).Error; err != nil {
				return fmt.Errorf("close listing: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedNetwork(users []*models.User, summary *Summary) error {
	f := s.factory
	for i := 0; i < s.opts.Posts; i++ {
		post, err := f.CreatePost(s.pick(users))
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		summary.Posts++

		for l := f.rng.Intn(4); l > 0; l-- {
			if err := f.Like(s.pick(users), post); err != nil {
				return fmt.Errorf("create like: %w", err)
			}
			summary.Likes++
		}
	}

	for _, reader := range users {
		authors := others(users, reader)
		if len(authors) == 0 {
			continue
		}
		for n := f.rng.Intn(4); n > 0; n-- {
			if err := f.Follow(reader, s.pick(authors)); err != nil {
				return fmt.Errorf("create follow: %w", err)
			}
			summary.Follows++
		}
	}
	return nil
}
