package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/pagination"
	"agora/internal/repository"
)

// FeedKind selects which posts a feed shows.
type FeedKind int

const (
	FeedAll FeedKind = iota
	FeedSubscriptions
	FeedAuthor
)

// FeedQuery carries the raw page, per_page and startswith query values.
// ViewerID is zero for anonymous requests.
type FeedQuery struct {
	Kind       FeedKind
	AuthorID   uint
	ViewerID   uint
	Page       string
	PerPage    string
	StartsWith string
}

// PageInfo describes the returned page and how to reach its neighbours.
type PageInfo struct {
	Current     int                    `json:"current"`
	HasNext     bool                   `json:"has_next"`
	HasPrevious bool                   `json:"has_previous"`
	Divider     string                 `json:"divider"`
	PageRange   []pagination.RangeItem `json:"page_range"`
	StartsWith  uint                   `json:"startswith"`
}

type FeedPage struct {
	Page PageInfo          `json:"page"`
	Data []models.PostView `json:"data"`
}

type UpdatePostInput struct {
	PostID uint
	UserID uint
	Body   *string
	Liked  *bool
}

type NetworkService struct {
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewNetworkService(
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
) *NetworkService {
	return &NetworkService{
		postRepo:   postRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

func userDoesNotExist(id uint) *models.AppError {
	return models.NewValidationError(fmt.Sprintf("User with id %d does not exist.", id))
}

// getUser resolves a network user, reporting a missing one as a bad request.
func (s *NetworkService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, userDoesNotExist(id)
		}
		return nil, err
	}
	return user, nil
}

// Feed returns one page of posts. The startswith snapshot keeps page numbers
// stable while new posts arrive; without one it pins to the newest post.
func (s *NetworkService) Feed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	filter := repository.PostFilter{}
	switch q.Kind {
	case FeedSubscriptions:
		if q.ViewerID == 0 {
			return nil, models.NewUnauthorizedError("Authorization required.")
		}
		filter.FollowedBy = q.ViewerID
	case FeedAuthor:
		if _, err := s.getUser(ctx, q.AuthorID); err != nil {
			return nil, err
		}
		filter.AuthorID = q.AuthorID
	}

	startsWith, err := s.resolveStartsWith(ctx, q.StartsWith)
	if err != nil {
		return nil, err
	}
	filter.StartsWith = startsWith

	count, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := pagination.New(count, pagination.ParsePerPage(q.PerPage)).GetPage(q.Page)

	posts, err := s.postRepo.Feed(ctx, filter, page.Limit(), page.Offset(), q.ViewerID)
	if err != nil {
		return nil, err
	}
	views := make([]models.PostView, 0, len(posts))
	for i := range posts {
		views = append(views, posts[i].View(q.ViewerID != 0))
	}

	return &FeedPage{
		Page: PageInfo{
			Current:     page.Number,
			HasNext:     page.HasNext(),
			HasPrevious: page.HasPrevious(),
			Divider:     pagination.Ellipsis,
			PageRange:   page.ElidedRange(),
			StartsWith:  startsWith,
		},
		Data: views,
	}, nil
}

func (s *NetworkService) resolveStartsWith(ctx context.Context, raw string) (uint, error) {
	if raw = strings.TrimSpace(raw); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, models.NewValidationError("startswith must be a post id")
		}
		return uint(n), nil
	}
	return s.postRepo.LatestID(ctx)
}

func (s *NetworkService) CreatePost(ctx context.Context, authorID uint, body string) (*models.Post, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("Post body cannot be empty.")
	}
	post := &models.Post{AuthorID: authorID, Body: body}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()

	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	post.Author = *author
	return post, nil
}

// UpdatePost edits the body (author only) and sets the caller's like.
func (s *NetworkService) UpdatePost(ctx context.Context, in UpdatePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}

	if in.Body != nil {
		if post.AuthorID != in.UserID {
			return models.NewForbiddenError("User cannot edit other people's posts.")
		}
		if strings.TrimSpace(*in.Body) == "" {
			return models.NewValidationError("Post body cannot be empty.")
		}
		if err := s.postRepo.UpdateBody(ctx, post.ID, *in.Body); err != nil {
			return err
		}
	}

	if in.Liked != nil {
		if *in.Liked {
			return s.postRepo.Like(ctx, in.UserID, post.ID)
		}
		return s.postRepo.Unlike(ctx, in.UserID, post.ID)
	}
	return nil
}

// Profile returns follower counts for userID. The viewer-specific flags are
// filled in only when viewerID is non-zero.
func (s *NetworkService) Profile(ctx context.Context, userID, viewerID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := cache.Aside(ctx, cache.ProfileKey(userID), &profile, cache.ProfileTTL, func() error {
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}
		authors, readers, err := s.followRepo.Counts(ctx, userID)
		if err != nil {
			return err
		}
		profile = models.UserProfile{
			ID:       user.ID,
			Username: user.Username,
			Authors:  authors,
			Readers:  readers,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if viewerID != 0 {
		followed, err := s.followRepo.IsFollowing(ctx, viewerID, userID)
		if err != nil {
			return nil, err
		}
		self := viewerID == userID
		profile.IsFollowed = &followed
		profile.IsAuthorIsUser = &self
	}
	return &profile, nil
}

// SetFollow makes readerID follow or unfollow authorID. A nil followed only
// validates the pair.
func (s *NetworkService) SetFollow(ctx context.Context, readerID, authorID uint, followed *bool) error {
	if _, err := s.getUser(ctx, authorID); err != nil {
		return err
	}
	if readerID == authorID {
		return models.NewValidationError("User cannot follow themselves.")
	}

	if followed == nil {
		return nil
	}

	var err error
	if *followed {
		err = s.followRepo.Follow(ctx, readerID, authorID)
	} else {
		err = s.followRepo.Unfollow(ctx, readerID, authorID)
	}
	if err != nil {
		return err
	}
	cache.InvalidateProfiles(ctx, readerID, authorID)
	return nil
}
