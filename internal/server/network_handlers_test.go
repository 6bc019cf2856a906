package server

import (
	"net/http"
	"testing"

	"agora/internal/models"
	"agora/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) post(token, body string) {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/network/posts", map[string]string{"body": body}, token)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
}

func (e *testEnv) feed(url, token string) service.FeedPage {
	e.t.Helper()
	resp := e.do(http.MethodGet, url, nil, token)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	var page service.FeedPage
	decodeJSON(e.t, resp, &page)
	return page
}

func TestNetwork_CreateAndListPosts(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.register("alice")

	resp := env.do(http.MethodPost, "/api/network/posts", map[string]string{"body": "first"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]string
	decodeJSON(t, resp, &created)
	assert.Equal(t, "Post created successfully.", created["message"])

	resp = env.do(http.MethodPost, "/api/network/posts", map[string]string{"body": "   "}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.post(token, "second")

	page := env.feed("/api/network/posts", "")
	require.Len(t, page.Data, 2)
	assert.Equal(t, "second", page.Data[0].Body)
	assert.Equal(t, "alice", page.Data[0].Author)
	assert.Nil(t, page.Data[0].IsLiked, "anonymous viewers get no like flag")
	assert.Equal(t, 1, page.Page.Current)
	assert.Equal(t, page.Data[0].ID, page.Page.StartsWith)

	authed := env.feed("/api/network/posts", token)
	require.NotNil(t, authed.Data[0].IsLiked)
	assert.False(t, *authed.Data[0].IsLiked)
}

func TestNetwork_SnapshotPagination(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.register("alice")
	for _, body := range []string{"one", "two", "three"} {
		env.post(token, body)
	}

	first := env.feed("/api/network/posts?per_page=2", "")
	require.Len(t, first.Data, 2)
	assert.True(t, first.Page.HasNext)
	assert.False(t, first.Page.HasPrevious)

	// A post made after the snapshot does not shift the pages.
	env.post(token, "four")

	second := env.feed(urlf("/api/network/posts?per_page=2&page=2&startswith=%d", first.Page.StartsWith), "")
	require.Len(t, second.Data, 1)
	assert.Equal(t, "one", second.Data[0].Body)
	assert.False(t, second.Page.HasNext)

	resp := env.do(http.MethodGet, "/api/network/posts?startswith=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNetwork_EditAndLike(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, _ := env.register("alice")
	bobToken, _ := env.register("bob")
	env.post(aliceToken, "hello")
	postID := env.feed("/api/network/posts", "").Data[0].ID
	postURL := urlf("/api/network/posts/%d", postID)

	resp := env.do(http.MethodPut, postURL, map[string]string{"body": "hijacked"}, bobToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodPut, postURL, map[string]string{"body": "hello, world"}, aliceToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(http.MethodPut, postURL, map[string]bool{"liked": true}, bobToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	page := env.feed("/api/network/posts", bobToken)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "hello, world", page.Data[0].Body)
	assert.Equal(t, int64(1), page.Data[0].NumberOfLikes)
	require.NotNil(t, page.Data[0].IsLiked)
	assert.True(t, *page.Data[0].IsLiked)

	resp = env.do(http.MethodPut, postURL, map[string]bool{"liked": false}, bobToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	page = env.feed("/api/network/posts", bobToken)
	assert.Equal(t, int64(0), page.Data[0].NumberOfLikes)

	resp = env.do(http.MethodPut, "/api/network/posts/999", map[string]bool{"liked": true}, bobToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNetwork_FollowAndSubscriptions(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, aliceID := env.register("alice")
	bobToken, bobID := env.register("bob")
	carolToken, _ := env.register("carol")
	env.post(aliceToken, "from alice")
	env.post(carolToken, "from carol")

	followURL := urlf("/api/network/users/%d", aliceID)
	resp := env.do(http.MethodPost, followURL, map[string]bool{"followed": true}, bobToken)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(http.MethodPost, followURL, map[string]bool{"followed": true}, aliceToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User cannot follow themselves.", errorBody(t, resp).Error)

	resp = env.do(http.MethodGet, followURL, nil, bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile models.UserProfile
	decodeJSON(t, resp, &profile)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, int64(1), profile.Readers)
	require.NotNil(t, profile.IsFollowed)
	assert.True(t, *profile.IsFollowed)
	require.NotNil(t, profile.IsAuthorIsUser)
	assert.False(t, *profile.IsAuthorIsUser)

	subs := env.feed("/api/network/posts/subscriptions", bobToken)
	require.Len(t, subs.Data, 1)
	assert.Equal(t, "from alice", subs.Data[0].Body)

	byCarol := env.feed(urlf("/api/network/users/%d/posts", bobID+1), "")
	require.Len(t, byCarol.Data, 1)
	assert.Equal(t, "from carol", byCarol.Data[0].Body)

	resp = env.do(http.MethodPost, followURL, map[string]bool{"followed": false}, bobToken)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, env.feed("/api/network/posts/subscriptions", bobToken).Data)

	resp = env.do(http.MethodGet, "/api/network/users/999", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User with id 999 does not exist.", errorBody(t, resp).Error)
}

func TestNetwork_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.register("alice")

	tests := []struct {
		method  string
		url     string
		message string
	}{
		{http.MethodDelete, "/api/network/posts", "GET or POST request required."},
		{http.MethodPost, "/api/network/posts/subscriptions", "GET request required."},
		{http.MethodGet, "/api/network/posts/1", "PUT request required."},
		{http.MethodPost, "/api/network/users/1/posts", "GET request required."},
		{http.MethodPut, "/api/network/users/1", "GET or POST request required."},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			resp := env.do(tt.method, tt.url, nil, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, errorBody(t, resp).Error)
		})
	}

	resp := env.do(http.MethodGet, "/api/network/posts/subscriptions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
