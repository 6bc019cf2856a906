package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetListings handles GET /api/auctions/listings
// @Summary Active listings
// @Description Active listings, newest first, each with the highest bid so far
// @Tags auctions
// @Produce json
// @Success 200 {array} models.Listing
// @Router /auctions/listings [get]
func (s *Server) GetListings(c *fiber.Ctx) error {
	listings, err := s.auctionService.ActiveListings(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}

// CreateListing handles POST /api/auctions/listings
// @Summary Create listing
// @Tags auctions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,description=string,starting_price=int,image_url=string,category_id=int} true "Listing"
// @Success 201 {object} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auctions/listings [post]
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		StartingPrice int64  `json:"starting_price"`
		ImageURL      string `json:"image_url"`
		CategoryID    uint   `json:"category_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	listing, err := s.auctionService.CreateListing(c.UserContext(), service.CreateListingInput{
		OwnerID:       currentUserID(c),
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		ImageURL:      req.ImageURL,
		CategoryID:    req.CategoryID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetListing handles GET /api/auctions/listings/:id
// @Summary Listing detail
// @Description Bids, comments and, for signed-in viewers, their last bid and watchlist state
// @Tags auctions
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} service.ListingDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /auctions/listings/{id} [get]
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	detail, err := s.auctionService.ListingDetail(c.UserContext(), id, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// PlaceBid handles POST /api/auctions/listings/:id/bids
// @Summary Place bid
// @Description The amount must exceed the highest bid, or the starting price when there is none
// @Tags auctions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body object{amount=int} true "Bid"
// @Success 201 {object} models.Bid
// @Failure 400 {object} models.ErrorResponse
// @Router /auctions/listings/{id}/bids [post]
func (s *Server) PlaceBid(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	userID := currentUserID(c)
	result, err := s.auctionService.PlaceBid(c.UserContext(), service.PlaceBidInput{
		ListingID: listingID,
		BidderID:  userID,
		Amount:    req.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}

	recipients := append([]uint{result.Listing.OwnerID}, result.WatcherIDs...)
	s.publishUsersEvent(recipients, userID, EventBidPlaced, map[string]interface{}{
		"listing_id": listingID,
		"title":      result.Listing.Title,
		"amount":     result.Bid.Amount,
		"bidder_id":  userID,
	})

	return c.Status(fiber.StatusCreated).JSON(result.Bid)
}

// CloseListing handles POST /api/auctions/listings/:id/close
// @Summary Close listing
// @Description Ends the auction; the highest bidder wins. Owner or admin only.
// @Tags auctions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {object} object{listing=models.Listing,winner=models.Bid}
// @Failure 403 {object} models.ErrorResponse
// @Router /auctions/listings/{id}/close [post]
func (s *Server) CloseListing(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	result, err := s.auctionService.CloseListing(c.UserContext(), listingID, userID)
	if err != nil {
		return respondError(c, err)
	}

	payload := map[string]interface{}{
		"listing_id": listingID,
		"title":      result.Listing.Title,
	}
	if result.Winner != nil {
		payload["winner_id"] = result.Winner.BidderID
		payload["amount"] = result.Winner.Amount
	}
	s.publishUsersEvent(result.NotifyIDs, userID, EventListingClosed, payload)

	return c.JSON(fiber.Map{
		"listing": result.Listing,
		"winner":  result.Winner,
	})
}

// AddComment handles POST /api/auctions/listings/:id/comments
// @Summary Comment on listing
// @Tags auctions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.Comment
// @Router /auctions/listings/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.auctionService.AddComment(c.UserContext(), listingID, currentUserID(c), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetWatchlist handles GET /api/auctions/watchlist
// @Summary Watchlist
// @Tags auctions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Listing
// @Router /auctions/watchlist [get]
func (s *Server) GetWatchlist(c *fiber.Ctx) error {
	listings, err := s.auctionService.Watchlist(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}

// ToggleWatchlist handles POST /api/auctions/watchlist
// @Summary Toggle watchlist membership
// @Tags auctions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{listing_id=int} true "Listing"
// @Success 200 {object} object{listing_id=int,on_watchlist=bool}
// @Router /auctions/watchlist [post]
func (s *Server) ToggleWatchlist(c *fiber.Ctx) error {
	var req struct {
		ListingID uint `json:"listing_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ListingID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("listing_id is required"))
	}

	watching, err := s.auctionService.ToggleWatch(c.UserContext(), currentUserID(c), req.ListingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"listing_id": req.ListingID, "on_watchlist": watching})
}

// AddToWatchlist handles PUT /api/auctions/watchlist/:id
// @Summary Watch listing
// @Tags auctions
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {object} object{listing_id=int,on_watchlist=bool}
// @Router /auctions/watchlist/{id} [put]
func (s *Server) AddToWatchlist(c *fiber.Ctx) error {
	return s.setWatch(c, true)
}

// RemoveFromWatchlist handles DELETE /api/auctions/watchlist/:id
// @Summary Unwatch listing
// @Tags auctions
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {object} object{listing_id=int,on_watchlist=bool}
// @Router /auctions/watchlist/{id} [delete]
func (s *Server) RemoveFromWatchlist(c *fiber.Ctx) error {
	return s.setWatch(c, false)
}

func (s *Server) setWatch(c *fiber.Ctx, watching bool) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.auctionService.SetWatch(c.UserContext(), currentUserID(c), listingID, watching); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"listing_id": listingID, "on_watchlist": watching})
}

// GetCategories handles GET /api/auctions/categories
// @Summary Categories
// @Description Categories with their number of active listings
// @Tags auctions
// @Produce json
// @Success 200 {object} models.CategoryIndex
// @Router /auctions/categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	index, err := s.auctionService.CategoryIndex(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(index)
}

// GetCategory handles GET /api/auctions/categories/:id. Category 0 lists the
// active listings that have no category.
// @Summary Category listings
// @Tags auctions
// @Produce json
// @Param id path int true "Category ID (0 = no category)"
// @Success 200 {object} service.CategoryListings
// @Failure 404 {object} models.ErrorResponse
// @Router /auctions/categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
	}

	page, err := s.auctionService.CategoryListings(c.UserContext(), uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
