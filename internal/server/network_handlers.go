package server

import (
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

func feedQuery(c *fiber.Ctx, kind service.FeedKind) service.FeedQuery {
	return service.FeedQuery{
		Kind:       kind,
		Page:       c.Query("page"),
		PerPage:    c.Query("per_page"),
		StartsWith: c.Query("startswith"),
	}
}

func (s *Server) respondFeed(c *fiber.Ctx, q service.FeedQuery) error {
	page, err := s.networkService.Feed(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPosts handles GET /api/network/posts
// @Summary All posts
// @Description Paginated feed pinned to the snapshot given by startswith
// @Tags network
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Posts per page (1-100)"
// @Param startswith query int false "Newest post id of the snapshot"
// @Success 200 {object} service.FeedPage
// @Router /network/posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	q := feedQuery(c, service.FeedAll)
	q.ViewerID, _ = s.optionalUserID(c)
	return s.respondFeed(c, q)
}

// GetSubscriptionPosts handles GET /api/network/posts/subscriptions
// @Summary Posts by followed authors
// @Tags network
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.FeedPage
// @Router /network/posts/subscriptions [get]
func (s *Server) GetSubscriptionPosts(c *fiber.Ctx) error {
	q := feedQuery(c, service.FeedSubscriptions)
	q.ViewerID = currentUserID(c)
	return s.respondFeed(c, q)
}

// GetUserPosts handles GET /api/network/users/:id/posts
// @Summary Posts by one author
// @Tags network
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /network/users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	q := feedQuery(c, service.FeedAuthor)
	q.AuthorID = authorID
	q.ViewerID, _ = s.optionalUserID(c)
	return s.respondFeed(c, q)
}

// CreatePost handles POST /api/network/posts
// @Summary Create post
// @Tags network
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{body=string} true "Post"
// @Success 201 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /network/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Body string `json:"body"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.networkService.CreatePost(c.UserContext(), currentUserID(c), req.Body)
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(EventPostCreated, map[string]interface{}{
		"post": post.View(false),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Post created successfully."})
}

// UpdatePost handles PUT /api/network/posts/:id
// @Summary Edit or like a post
// @Description body edits are limited to the author; liked toggles the viewer's like
// @Tags network
// @Accept json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{body=string,liked=bool} true "Changes"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /network/posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Body  *string `json:"body"`
		Liked *bool   `json:"liked"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	err = s.networkService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID: postID,
		UserID: currentUserID(c),
		Body:   req.Body,
		Liked:  req.Liked,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetProfile handles GET /api/network/users/:id
// @Summary User profile
// @Tags network
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} models.ErrorResponse
// @Router /network/users/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	profile, err := s.networkService.Profile(c.UserContext(), userID, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// SetFollow handles POST /api/network/users/:id
// @Summary Follow or unfollow
// @Tags network
// @Accept json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{followed=bool} true "Follow state"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Router /network/users/{id} [post]
func (s *Server) SetFollow(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Followed *bool `json:"followed"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	readerID := currentUserID(c)
	if err := s.networkService.SetFollow(c.UserContext(), readerID, authorID, req.Followed); err != nil {
		return respondError(c, err)
	}

	if req.Followed != nil && *req.Followed {
		s.publishUserEvent(authorID, EventNewReader, map[string]interface{}{
			"reader_id": readerID,
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
