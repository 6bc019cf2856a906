package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agora/internal/models"
	"agora/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stubs below return zero values for any method whose fn field is nil.

// listingRepoStub is a stub for repository.ListingRepository.
type listingRepoStub struct {
	createFn         func(context.Context, *models.Listing) error
	getByIDFn        func(context.Context, uint) (*models.Listing, error)
	getForUpdateFn   func(context.Context, uint) (*models.Listing, error)
	listActiveFn     func(context.Context) ([]models.Listing, error)
	listByCategoryFn func(context.Context, uint) ([]models.Listing, error)
	listWatchedFn    func(context.Context, uint) ([]models.Listing, error)
	closeFn          func(context.Context, uint) error
	bids             repository.BidRepository
}

func (s *listingRepoStub) Create(ctx context.Context, l *models.Listing) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, l)
}
func (s *listingRepoStub) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	if s.getByIDFn == nil {
		return &models.Listing{ID: id, IsActive: true}, nil
	}
	return s.getByIDFn(ctx, id)
}
func (s *listingRepoStub) GetForUpdate(ctx context.Context, id uint) (*models.Listing, error) {
	if s.getForUpdateFn == nil {
		return s.GetByID(ctx, id)
	}
	return s.getForUpdateFn(ctx, id)
}
func (s *listingRepoStub) ListActive(ctx context.Context) ([]models.Listing, error) {
	if s.listActiveFn == nil {
		return nil, nil
	}
	return s.listActiveFn(ctx)
}
func (s *listingRepoStub) ListByCategory(ctx context.Context, categoryID uint) ([]models.Listing, error) {
	if s.listByCategoryFn == nil {
		return nil, nil
	}
	return s.listByCategoryFn(ctx, categoryID)
}
func (s *listingRepoStub) ListWatched(ctx context.Context, userID uint) ([]models.Listing, error) {
	if s.listWatchedFn == nil {
		return nil, nil
	}
	return s.listWatchedFn(ctx, userID)
}
func (s *listingRepoStub) List(_ context.Context, _, _ int) ([]models.Listing, error) {
	return nil, nil
}
func (s *listingRepoStub) Close(ctx context.Context, id uint) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx, id)
}
func (s *listingRepoStub) Transaction(_ context.Context, fn func(repository.ListingRepository, repository.BidRepository) error) error {
	return fn(s, s.bids)
}

// bidRepoStub is a stub for repository.BidRepository.
type bidRepoStub struct {
	createFn          func(context.Context, *models.Bid) error
	highestFn         func(context.Context, uint) (*models.Bid, error)
	highestByBidderFn func(context.Context, uint, uint) (*models.Bid, error)
	listByListingFn   func(context.Context, uint) ([]models.Bid, error)
	bidderIDsFn       func(context.Context, uint) ([]uint, error)
}

func (s *bidRepoStub) Create(ctx context.Context, b *models.Bid) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, b)
}
func (s *bidRepoStub) Highest(ctx context.Context, listingID uint) (*models.Bid, error) {
	if s.highestFn == nil {
		return nil, nil
	}
	return s.highestFn(ctx, listingID)
}
func (s *bidRepoStub) HighestByBidder(ctx context.Context, listingID, bidderID uint) (*models.Bid, error) {
	if s.highestByBidderFn == nil {
		return nil, nil
	}
	return s.highestByBidderFn(ctx, listingID, bidderID)
}
func (s *bidRepoStub) ListByListing(ctx context.Context, listingID uint) ([]models.Bid, error) {
	if s.listByListingFn == nil {
		return []models.Bid{}, nil
	}
	return s.listByListingFn(ctx, listingID)
}
func (s *bidRepoStub) BidderIDs(ctx context.Context, listingID uint) ([]uint, error) {
	if s.bidderIDsFn == nil {
		return nil, nil
	}
	return s.bidderIDsFn(ctx, listingID)
}
func (s *bidRepoStub) List(_ context.Context, _, _ int) ([]models.Bid, error) {
	return nil, nil
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn func(context.Context, *models.Comment) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByListing(_ context.Context, _ uint) ([]models.Comment, error) {
	return []models.Comment{}, nil
}
func (s *commentRepoStub) List(_ context.Context, _, _ int) ([]models.Comment, error) {
	return nil, nil
}

// watchRepoStub is a stub for repository.WatchRepository backed by a set.
type watchRepoStub struct {
	watching map[[2]uint]bool
}

func newWatchRepoStub() *watchRepoStub {
	return &watchRepoStub{watching: map[[2]uint]bool{}}
}

func (s *watchRepoStub) Add(_ context.Context, userID, listingID uint) error {
	s.watching[[2]uint{userID, listingID}] = true
	return nil
}
func (s *watchRepoStub) Remove(_ context.Context, userID, listingID uint) error {
	delete(s.watching, [2]uint{userID, listingID})
	return nil
}
func (s *watchRepoStub) Toggle(ctx context.Context, userID, listingID uint) (bool, error) {
	if s.watching[[2]uint{userID, listingID}] {
		return false, s.Remove(ctx, userID, listingID)
	}
	return true, s.Add(ctx, userID, listingID)
}
func (s *watchRepoStub) IsWatching(_ context.Context, userID, listingID uint) (bool, error) {
	return s.watching[[2]uint{userID, listingID}], nil
}
func (s *watchRepoStub) WatcherIDs(_ context.Context, listingID uint) ([]uint, error) {
	var ids []uint
	for key := range s.watching {
		if key[1] == listingID {
			ids = append(ids, key[0])
		}
	}
	return ids, nil
}
func (s *watchRepoStub) ReplaceWatchers(_ context.Context, listingID uint, userIDs []uint) error {
	for key := range s.watching {
		if key[1] == listingID {
			delete(s.watching, key)
		}
	}
	for _, id := range userIDs {
		s.watching[[2]uint{id, listingID}] = true
	}
	return nil
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	categories map[uint]models.Category
}

func (s *categoryRepoStub) Create(_ context.Context, c *models.Category) error {
	c.ID = uint(len(s.categories) + 1)
	s.categories[c.ID] = *c
	return nil
}
func (s *categoryRepoStub) GetByID(_ context.Context, id uint) (*models.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, models.NewNotFoundError("Category", id)
	}
	return &c, nil
}
func (s *categoryRepoStub) GetByName(_ context.Context, name string) (*models.Category, error) {
	for _, c := range s.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, models.NewNotFoundMessage("Category " + name + " not found")
}
func (s *categoryRepoStub) List(_ context.Context) ([]models.Category, error) {
	return nil, nil
}
func (s *categoryRepoStub) Index(_ context.Context) (*models.CategoryIndex, error) {
	return &models.CategoryIndex{}, nil
}

// userRepoStub is a stub for repository.UserRepository backed by a map.
type userRepoStub struct {
	users map[uint]*models.User
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: map[uint]*models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return u, nil
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) GetByEmails(_ context.Context, emails []string) ([]models.User, error) {
	var out []models.User
	for _, e := range emails {
		for _, u := range s.users {
			if strings.EqualFold(u.Email, e) {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	user.ID = uint(len(s.users) + 1)
	s.users[user.ID] = user
	return nil
}
func (s *userRepoStub) SetAdmin(_ context.Context, id uint, isAdmin bool) error {
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.IsAdmin = isAdmin
	return nil
}
func (s *userRepoStub) ListAdmins(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.IsAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}
func (s *userRepoStub) List(_ context.Context, _, _ int) ([]models.User, error) {
	return nil, nil
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint, uint) (*models.Post, error)
	updateBodyFn func(context.Context, uint, string) error
	feedFn       func(context.Context, repository.PostFilter, int, int, uint) ([]models.Post, error)
	countFn      func(context.Context, repository.PostFilter) (int64, error)
	latestIDFn   func(context.Context) (uint, error)
	likeFn       func(context.Context, uint, uint) error
	unlikeFn     func(context.Context, uint, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, p)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	if s.getByIDFn == nil {
		return &models.Post{ID: id}, nil
	}
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) UpdateBody(ctx context.Context, id uint, body string) error {
	if s.updateBodyFn == nil {
		return nil
	}
	return s.updateBodyFn(ctx, id, body)
}
func (s *postRepoStub) Feed(ctx context.Context, f repository.PostFilter, limit, offset int, currentUserID uint) ([]models.Post, error) {
	if s.feedFn == nil {
		return nil, nil
	}
	return s.feedFn(ctx, f, limit, offset, currentUserID)
}
func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx, f)
}
func (s *postRepoStub) LatestID(ctx context.Context) (uint, error) {
	if s.latestIDFn == nil {
		return 0, nil
	}
	return s.latestIDFn(ctx)
}
func (s *postRepoStub) List(_ context.Context, _, _ int) ([]models.Post, error) {
	return nil, nil
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	if s.likeFn == nil {
		return nil
	}
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	if s.unlikeFn == nil {
		return nil
	}
	return s.unlikeFn(ctx, userID, postID)
}

// followRepoStub is a stub for repository.FollowRepository backed by a set.
type followRepoStub struct {
	follows map[[2]uint]bool
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{follows: map[[2]uint]bool{}}
}

func (s *followRepoStub) Follow(_ context.Context, readerID, authorID uint) error {
	s.follows[[2]uint{readerID, authorID}] = true
	return nil
}
func (s *followRepoStub) Unfollow(_ context.Context, readerID, authorID uint) error {
	delete(s.follows, [2]uint{readerID, authorID})
	return nil
}
func (s *followRepoStub) IsFollowing(_ context.Context, readerID, authorID uint) (bool, error) {
	return s.follows[[2]uint{readerID, authorID}], nil
}
func (s *followRepoStub) Counts(_ context.Context, userID uint) (int64, int64, error) {
	var authors, readers int64
	for key := range s.follows {
		if key[0] == userID {
			authors++
		}
		if key[1] == userID {
			readers++
		}
	}
	return authors, readers, nil
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}
