package service

import (
	"context"
	"sort"
	"strings"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
	"agora/internal/validation"
)

const (
	maxListingTitleLen       = 200
	maxListingDescriptionLen = 1000
	maxCommentLen            = 200

	bidTooLowMessage = "Your bid amount must be greater than the current listing price"
)

// AuctionService holds the bidding rules. The repository layer only stores
// bids; whether a bid is acceptable is decided here.
type AuctionService struct {
	listingRepo  repository.ListingRepository
	bidRepo      repository.BidRepository
	commentRepo  repository.CommentRepository
	watchRepo    repository.WatchRepository
	categoryRepo repository.CategoryRepository
	isAdmin      func(ctx context.Context, userID uint) (bool, error)
}

type CreateListingInput struct {
	OwnerID       uint
	Title         string
	Description   string
	StartingPrice int64
	ImageURL      string
	CategoryID    uint
}

type PlaceBidInput struct {
	ListingID uint
	BidderID  uint
	Amount    int64
}

// BidResult is an accepted bid plus who should hear about it.
type BidResult struct {
	Bid        *models.Bid
	Listing    *models.Listing
	WatcherIDs []uint
}

// CloseResult is a closed listing, its winning bid (nil without bids) and the
// watchers and bidders to notify.
type CloseResult struct {
	Listing   *models.Listing
	Winner    *models.Bid
	NotifyIDs []uint
}

// ListingDetail is the listing page. LastUserBid and OnWatchlist are only set
// for authenticated viewers.
type ListingDetail struct {
	Listing     *models.Listing  `json:"listing"`
	Bids        []models.Bid     `json:"bids"`
	LastBid     *models.Bid      `json:"last_bid"`
	Comments    []models.Comment `json:"comments"`
	LastUserBid *models.Bid      `json:"last_user_bid,omitempty"`
	OnWatchlist *bool            `json:"on_watchlist,omitempty"`
}

// CategoryListings is one category page.
type CategoryListings struct {
	Title    string           `json:"title"`
	Listings []models.Listing `json:"listings"`
}

// NoCategoryTitle names the bucket of listings without a category.
const NoCategoryTitle = "No category"

func NewAuctionService(
	listingRepo repository.ListingRepository,
	bidRepo repository.BidRepository,
	commentRepo repository.CommentRepository,
	watchRepo repository.WatchRepository,
	categoryRepo repository.CategoryRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *AuctionService {
	return &AuctionService{
		listingRepo:  listingRepo,
		bidRepo:      bidRepo,
		commentRepo:  commentRepo,
		watchRepo:    watchRepo,
		categoryRepo: categoryRepo,
		isAdmin:      isAdmin,
	}
}

func (s *AuctionService) ActiveListings(ctx context.Context) ([]models.Listing, error) {
	return s.listingRepo.ListActive(ctx)
}

func (s *AuctionService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if err := validation.ValidateLength("title", in.Title, maxListingTitleLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateLength("description", in.Description, maxListingDescriptionLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.StartingPrice <= 0 {
		return nil, models.NewValidationError("starting_price must be greater than zero")
	}
	if err := validation.ValidateImageURL(in.ImageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	listing := &models.Listing{
		OwnerID:       in.OwnerID,
		Title:         in.Title,
		Description:   in.Description,
		StartingPrice: in.StartingPrice,
		ImageURL:      in.ImageURL,
		IsActive:      true,
	}
	if in.CategoryID != 0 {
		category, err := s.categoryRepo.GetByID(ctx, in.CategoryID)
		if err != nil {
			return nil, err
		}
		listing.CategoryID = &category.ID
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}
	return s.listingRepo.GetByID(ctx, listing.ID)
}

func (s *AuctionService) ListingDetail(ctx context.Context, listingID, currentUserID uint) (*ListingDetail, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	bids, err := s.bidRepo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	detail := &ListingDetail{
		Listing:  listing,
		Bids:     bids,
		Comments: comments,
	}
	if len(bids) > 0 {
		detail.LastBid = &bids[0]
	}

	if currentUserID != 0 {
		detail.LastUserBid, err = s.bidRepo.HighestByBidder(ctx, listingID, currentUserID)
		if err != nil {
			return nil, err
		}
		watching, err := s.watchRepo.IsWatching(ctx, currentUserID, listingID)
		if err != nil {
			return nil, err
		}
		detail.OnWatchlist = &watching
	}
	return detail, nil
}

// PlaceBid accepts the bid only when it beats the current price: the highest
// bid, or the starting price while there are none. The check and the insert
// share one transaction with the listing row locked.
func (s *AuctionService) PlaceBid(ctx context.Context, in PlaceBidInput) (*BidResult, error) {
	ctx, span := observability.StartSpan(ctx, "auctions", "place_bid")
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	bid := &models.Bid{
		ListingID: in.ListingID,
		BidderID:  in.BidderID,
		Amount:    in.Amount,
	}
	var listing *models.Listing

	spanErr = s.listingRepo.Transaction(ctx, func(listings repository.ListingRepository, bids repository.BidRepository) error {
		var err error
		listing, err = listings.GetForUpdate(ctx, in.ListingID)
		if err != nil {
			return err
		}
		if !listing.IsActive {
			observability.BidsPlaced.WithLabelValues("closed").Inc()
			return models.NewValidationError("This listing is closed.")
		}

		highest, err := bids.Highest(ctx, in.ListingID)
		if err != nil {
			return err
		}
		if highest != nil {
			listing.LastBidAmount = &highest.Amount
		}
		if in.Amount <= listing.CurrentPrice() {
			observability.BidsPlaced.WithLabelValues("too_low").Inc()
			return models.NewValidationError(bidTooLowMessage)
		}
		return bids.Create(ctx, bid)
	})
	if spanErr != nil {
		return nil, spanErr
	}
	observability.BidsPlaced.WithLabelValues("accepted").Inc()
	listing.LastBidAmount = &bid.Amount

	watchers, err := s.watchRepo.WatcherIDs(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	return &BidResult{Bid: bid, Listing: listing, WatcherIDs: watchers}, nil
}

// CloseListing ends the auction. Only the owner or an admin may close it.
func (s *AuctionService) CloseListing(ctx context.Context, listingID, userID uint) (*CloseResult, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != userID {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, models.NewForbiddenError("Only the owner can close this listing.")
		}
	}
	if !listing.IsActive {
		return nil, models.NewValidationError("This listing is already closed.")
	}

	if err := s.listingRepo.Close(ctx, listingID); err != nil {
		return nil, err
	}
	listing.IsActive = false
	observability.ListingsClosed.Inc()

	winner, err := s.bidRepo.Highest(ctx, listingID)
	if err != nil {
		return nil, err
	}
	watchers, err := s.watchRepo.WatcherIDs(ctx, listingID)
	if err != nil {
		return nil, err
	}
	bidders, err := s.bidRepo.BidderIDs(ctx, listingID)
	if err != nil {
		return nil, err
	}

	return &CloseResult{
		Listing:   listing,
		Winner:    winner,
		NotifyIDs: mergeIDs(watchers, bidders),
	}, nil
}

func (s *AuctionService) AddComment(ctx context.Context, listingID, authorID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateLength("text", text, maxCommentLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.listingRepo.GetByID(ctx, listingID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AuthorID:  authorID,
		ListingID: listingID,
		Text:      text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *AuctionService) Watchlist(ctx context.Context, userID uint) ([]models.Listing, error) {
	return s.listingRepo.ListWatched(ctx, userID)
}

// ToggleWatch flips the listing's watchlist membership and returns the new state.
func (s *AuctionService) ToggleWatch(ctx context.Context, userID, listingID uint) (bool, error) {
	if _, err := s.listingRepo.GetByID(ctx, listingID); err != nil {
		return false, err
	}
	return s.watchRepo.Toggle(ctx, userID, listingID)
}

// SetWatch adds or removes the listing. Repeating a call changes nothing.
func (s *AuctionService) SetWatch(ctx context.Context, userID, listingID uint, watching bool) error {
	if _, err := s.listingRepo.GetByID(ctx, listingID); err != nil {
		return err
	}
	if watching {
		return s.watchRepo.Add(ctx, userID, listingID)
	}
	return s.watchRepo.Remove(ctx, userID, listingID)
}

func (s *AuctionService) CategoryIndex(ctx context.Context) (*models.CategoryIndex, error) {
	return s.categoryRepo.Index(ctx)
}

// CategoryListings returns the active listings of a category. Category 0 is
// the bucket of listings without one.
func (s *AuctionService) CategoryListings(ctx context.Context, categoryID uint) (*CategoryListings, error) {
	title := NoCategoryTitle
	if categoryID != 0 {
		category, err := s.categoryRepo.GetByID(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		title = category.Name
	}

	listings, err := s.listingRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return &CategoryListings{Title: title, Listings: listings}, nil
}

// mergeIDs returns the sorted union of the given id lists.
func mergeIDs(lists ...[]uint) []uint {
	seen := make(map[uint]struct{})
	var out []uint
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
