package server

import (
	"io"
	"net/http"
	"testing"

	"agora/internal/models"
	"agora/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuctionFlow(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, aliceID := env.register("alice")
	bobToken, bobID := env.register("bob")
	carolToken, _ := env.register("carol")

	listing := env.createListing(aliceToken, "Lamp", 100)
	assert.Equal(t, aliceID, listing.OwnerID)
	assert.True(t, listing.IsActive)

	bidURL := urlf("/api/auctions/listings/%d/bids", listing.ID)

	resp := env.do(http.MethodPost, bidURL, map[string]int64{"amount": 100}, bobToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "bid must exceed the starting price")

	resp = env.do(http.MethodPost, bidURL, map[string]int64{"amount": 150}, bobToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var bid models.Bid
	decodeJSON(t, resp, &bid)
	assert.Equal(t, int64(150), bid.Amount)
	assert.Equal(t, bobID, bid.BidderID)

	resp = env.do(http.MethodPost, bidURL, map[string]int64{"amount": 150}, carolToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "bid must exceed the highest bid")

	resp = env.do(http.MethodGet, urlf("/api/auctions/listings/%d", listing.ID), nil, bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail service.ListingDetail
	decodeJSON(t, resp, &detail)
	require.NotNil(t, detail.LastBid)
	assert.Equal(t, int64(150), detail.LastBid.Amount)
	require.NotNil(t, detail.LastUserBid)
	assert.Equal(t, int64(150), detail.LastUserBid.Amount)
	require.NotNil(t, detail.OnWatchlist)
	assert.False(t, *detail.OnWatchlist)

	resp = env.do(http.MethodGet, urlf("/api/auctions/listings/%d", listing.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var anonymous service.ListingDetail
	decodeJSON(t, resp, &anonymous)
	assert.Nil(t, anonymous.OnWatchlist)
	assert.Nil(t, anonymous.LastUserBid)

	closeURL := urlf("/api/auctions/listings/%d/close", listing.ID)
	resp = env.do(http.MethodPost, closeURL, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodPost, closeURL, nil, aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var closed struct {
		Listing models.Listing `json:"listing"`
		Winner  *models.Bid    `json:"winner"`
	}
	decodeJSON(t, resp, &closed)
	assert.False(t, closed.Listing.IsActive)
	require.NotNil(t, closed.Winner)
	assert.Equal(t, bobID, closed.Winner.BidderID)

	resp = env.do(http.MethodPost, closeURL, nil, aliceToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodPost, bidURL, map[string]int64{"amount": 500}, carolToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "This listing is closed.", errorBody(t, resp).Error)

	resp = env.do(http.MethodGet, "/api/auctions/listings", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var active []models.Listing
	decodeJSON(t, resp, &active)
	assert.Empty(t, active)
}

func TestCreateListing_Validation(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.register("alice")

	resp := env.do(http.MethodPost, "/api/auctions/listings", map[string]any{
		"title": "Lamp", "description": "Bright", "starting_price": 10,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero price", map[string]any{"title": "Lamp", "description": "Bright", "starting_price": 0}},
		{"missing title", map[string]any{"title": " ", "description": "Bright", "starting_price": 10}},
		{"relative image", map[string]any{"title": "Lamp", "description": "Bright", "starting_price": 10, "image_url": "/lamp.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(http.MethodPost, "/api/auctions/listings", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp = env.do(http.MethodPost, "/api/auctions/listings", map[string]any{
		"title": "Lamp", "description": "Bright", "starting_price": 10, "category_id": 99,
	}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/auctions/listings/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid ID", errorBody(t, resp).Error)
}

func TestWatchlist(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, _ := env.register("alice")
	bobToken, _ := env.register("bob")
	listing := env.createListing(aliceToken, "Lamp", 100)

	toggle := func() bool {
		resp := env.do(http.MethodPost, "/api/auctions/watchlist", map[string]uint{"listing_id": listing.ID}, bobToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out struct {
			OnWatchlist bool `json:"on_watchlist"`
		}
		decodeJSON(t, resp, &out)
		return out.OnWatchlist
	}
	watched := func() []models.Listing {
		resp := env.do(http.MethodGet, "/api/auctions/watchlist", nil, bobToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []models.Listing
		decodeJSON(t, resp, &out)
		return out
	}

	assert.True(t, toggle())
	assert.Len(t, watched(), 1)
	assert.False(t, toggle())
	assert.Empty(t, watched())

	itemURL := urlf("/api/auctions/watchlist/%d", listing.ID)
	for i := 0; i < 2; i++ {
		resp := env.do(http.MethodPut, itemURL, nil, bobToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Len(t, watched(), 1)

	resp := env.do(http.MethodDelete, itemURL, nil, bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, watched())

	resp = env.do(http.MethodPost, "/api/auctions/watchlist", map[string]uint{"listing_id": 0}, bobToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodPut, "/api/auctions/watchlist/999", nil, bobToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, false)
	adminToken, adminID := env.register("admin")
	env.makeAdmin(adminID)

	resp := env.do(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Home"}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var category models.Category
	decodeJSON(t, resp, &category)

	resp = env.do(http.MethodPost, "/api/auctions/listings", map[string]any{
		"title": "Lamp", "description": "Bright", "starting_price": 10, "category_id": category.ID,
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env.createListing(adminToken, "Rug", 20)

	resp = env.do(http.MethodGet, "/api/auctions/categories", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var index models.CategoryIndex
	decodeJSON(t, resp, &index)
	require.Len(t, index.Categories, 1)
	assert.Equal(t, "Home", index.Categories[0].Name)
	assert.Equal(t, int64(1), index.Categories[0].NumberOfListings)
	assert.Equal(t, int64(1), index.NumberOfListingsWithoutCategory)

	resp = env.do(http.MethodGet, urlf("/api/auctions/categories/%d", category.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page service.CategoryListings
	decodeJSON(t, resp, &page)
	assert.Equal(t, "Home", page.Title)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, "Lamp", page.Listings[0].Title)

	resp = env.do(http.MethodGet, "/api/auctions/categories/0", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &page)
	assert.Equal(t, service.NoCategoryTitle, page.Title)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, "Rug", page.Listings[0].Title)

	resp = env.do(http.MethodGet, "/api/auctions/categories/-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/auctions/categories/999", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, aliceID := env.register("alice")
	listing := env.createListing(aliceToken, "Lamp", 100)

	resp := env.do(http.MethodPost, urlf("/api/auctions/listings/%d/comments", listing.ID),
		map[string]string{"text": "Does it work?"}, aliceToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decodeJSON(t, resp, &comment)
	assert.Equal(t, aliceID, comment.AuthorID)

	resp = env.do(http.MethodPost, urlf("/api/auctions/listings/%d/comments", listing.ID),
		map[string]string{"text": ""}, aliceToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodGet, urlf("/api/auctions/listings/%d", listing.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail service.ListingDetail
	decodeJSON(t, resp, &detail)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "Does it work?", detail.Comments[0].Text)
}

func TestAuctionPayloads_HideContactDetails(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, _ := env.register("alice")
	bobToken, _ := env.register("bobby")

	listing := env.createListing(aliceToken, "Lamp", 100)
	resp := env.do(http.MethodPost, urlf("/api/auctions/listings/%d/bids", listing.ID), map[string]int64{"amount": 150}, bobToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = env.do(http.MethodPost, urlf("/api/auctions/listings/%d/comments", listing.ID), map[string]string{"text": "Still works?"}, bobToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, path := range []string{
		"/api/auctions/listings",
		urlf("/api/auctions/listings/%d", listing.ID),
		"/api/auctions/categories/0",
	} {
		t.Run(path, func(t *testing.T) {
			resp := env.do(http.MethodGet, path, nil, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			body := string(raw)
			assert.Contains(t, body, `"username":"alice"`)
			assert.NotContains(t, body, `"email"`)
			assert.NotContains(t, body, "@example.com")
			assert.NotContains(t, body, `"is_admin"`)
		})
	}

	resp = env.do(http.MethodGet, urlf("/api/auctions/listings/%d", listing.ID), nil, "")
	var detail service.ListingDetail
	decodeJSON(t, resp, &detail)
	require.NotNil(t, detail.LastBid)
	assert.Equal(t, "bobby", detail.LastBid.Bidder.Username)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "bobby", detail.Comments[0].Author.Username)
}
