package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"
)

const (
	maxCategoryNameLen = 60
	emptyValueDisplay  = "-"
)

// AdminTable is one admin list view: the display columns in order and one
// row per record keyed by column name.
type AdminTable struct {
	Entity  string           `json:"entity"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// AdminService backs the staff-only list views and maintenance actions.
type AdminService struct {
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	listingRepo  repository.ListingRepository
	commentRepo  repository.CommentRepository
	bidRepo      repository.BidRepository
	postRepo     repository.PostRepository
	watchRepo    repository.WatchRepository
}

func NewAdminService(
	userRepo repository.UserRepository,
	categoryRepo repository.CategoryRepository,
	listingRepo repository.ListingRepository,
	commentRepo repository.CommentRepository,
	bidRepo repository.BidRepository,
	postRepo repository.PostRepository,
	watchRepo repository.WatchRepository,
) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		listingRepo:  listingRepo,
		commentRepo:  commentRepo,
		bidRepo:      bidRepo,
		postRepo:     postRepo,
		watchRepo:    watchRepo,
	}
}

func listingLabel(l *models.Listing) string {
	if l == nil {
		return emptyValueDisplay
	}
	return fmt.Sprintf("%d: %s", l.ID, l.Title)
}

func formatAdminTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *AdminService) Users(ctx context.Context, limit, offset int) (*AdminTable, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	table := &AdminTable{Entity: "users", Columns: []string{"id", "username", "date_joined"}, Rows: []map[string]any{}}
	for _, u := range users {
		table.Rows = append(table.Rows, map[string]any{
			"id":          u.ID,
			"username":    u.Username,
			"date_joined": formatAdminTime(u.CreatedAt),
		})
	}
	return table, nil
}

func (s *AdminService) Categories(ctx context.Context) (*AdminTable, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	table := &AdminTable{Entity: "categories", Columns: []string{"id", "name"}, Rows: []map[string]any{}}
	for _, c := range categories {
		table.Rows = append(table.Rows, map[string]any{"id": c.ID, "name": c.Name})
	}
	return table, nil
}

func (s *AdminService) Listings(ctx context.Context, limit, offset int) (*AdminTable, error) {
	listings, err := s.listingRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	table := &AdminTable{
		Entity:  "listings",
		Columns: []string{"id", "title", "owner", "starting_price", "category", "is_active"},
		Rows:    []map[string]any{},
	}
	for _, l := range listings {
		category := emptyValueDisplay
		if l.Category != nil {
			category = l.Category.Name
		}
		table.Rows = append(table.Rows, map[string]any{
			"id":             l.ID,
			"title":          l.Title,
			"owner":          l.Owner.Username,
			"starting_price": l.StartingPrice,
			"category":       category,
			"is_active":      l.IsActive,
		})
	}
	return table, nil
}

func (s *AdminService) Comments(ctx context.Context, limit, offset int) (*AdminTable, error) {
	comments, err := s.commentRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	table := &AdminTable{Entity: "comments", Columns: []string{"id", "text", "author", "listing"}, Rows: []map[string]any{}}
	for _, c := range comments {
		table.Rows = append(table.Rows, map[string]any{
			"id":      c.ID,
			"text":    c.Text,
			"author":  c.Author.Username,
			"listing": listingLabel(c.Listing),
		})
	}
	return table, nil
}

func (s *AdminService) Bids(ctx context.Context, limit, offset int) (*AdminTable, error) {
	bids, err := s.bidRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	table := &AdminTable{Entity: "bids", Columns: []string{"id", "bidder", "listing", "amount"}, Rows: []map[string]any{}}
	for _, b := range bids {
		table.Rows = append(table.Rows, map[string]any{
			"id":      b.ID,
			"bidder":  b.Bidder.Username,
			"listing": listingLabel(b.Listing),
			"amount":  b.Amount,
		})
	}
	return table, nil
}

func (s *AdminService) Posts(ctx context.Context, limit, offset int) (*AdminTable, error) {
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	table := &AdminTable{Entity: "posts", Columns: []string{"author", "id", "timestamp", "body"}, Rows: []map[string]any{}}
	for _, p := range posts {
		table.Rows = append(table.Rows, map[string]any{
			"author":    p.Author.Username,
			"id":        p.ID,
			"timestamp": formatAdminTime(p.Timestamp),
			"body":      p.Body,
		})
	}
	return table, nil
}

func (s *AdminService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateLength("name", name, maxCategoryNameLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	category := &models.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ReplaceWatchers sets the listing's watcher set to exactly userIDs.
func (s *AdminService) ReplaceWatchers(ctx context.Context, listingID uint, userIDs []uint) ([]uint, error) {
	if _, err := s.listingRepo.GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := s.watchRepo.ReplaceWatchers(ctx, listingID, userIDs); err != nil {
		return nil, err
	}
	return s.watchRepo.WatcherIDs(ctx, listingID)
}
