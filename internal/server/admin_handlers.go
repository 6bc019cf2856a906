package server

import (
	"context"

	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type pagedTable func(ctx context.Context, limit, offset int) (*service.AdminTable, error)

func (s *Server) respondTable(c *fiber.Ctx, list pagedTable) error {
	page := parsePagination(c, defaultPaginationLimit)
	table, err := list(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(table)
}

// AdminUsers handles GET /api/admin/users
// @Summary Admin: users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} service.AdminTable
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) AdminUsers(c *fiber.Ctx) error {
	return s.respondTable(c, s.adminService.Users)
}

// AdminListings handles GET /api/admin/listings
// @Summary Admin: listings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminTable
// @Router /admin/listings [get]
func (s *Server) AdminListings(c *fiber.Ctx) error {
	return s.respondTable(c, s.adminService.Listings)
}

// AdminComments handles GET /api/admin/comments
// @Summary Admin: comments
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminTable
// @Router /admin/comments [get]
func (s *Server) AdminComments(c *fiber.Ctx) error {
	return s.respondTable(c, s.adminService.Comments)
}

// AdminBids handles GET /api/admin/bids
// @Summary Admin: bids
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminTable
// @Router /admin/bids [get]
func (s *Server) AdminBids(c *fiber.Ctx) error {
	return s.respondTable(c, s.adminService.Bids)
}

// AdminPosts handles GET /api/admin/posts
// @Summary Admin: posts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminTable
// @Router /admin/posts [get]
func (s *Server) AdminPosts(c *fiber.Ctx) error {
	return s.respondTable(c, s.adminService.Posts)
}

// AdminCategories handles GET /api/admin/categories
// @Summary Admin: categories
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminTable
// @Router /admin/categories [get]
func (s *Server) AdminCategories(c *fiber.Ctx) error {
	table, err := s.adminService.Categories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(table)
}

// AdminCreateCategory handles POST /api/admin/categories
// @Summary Admin: create category
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string} true "Category"
// @Success 201 {object} models.Category
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/categories [post]
func (s *Server) AdminCreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.adminService.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// AdminReplaceWatchers handles PUT /api/admin/listings/:id/watchers
// @Summary Admin: set a listing's watchers
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body object{user_ids=[]int} true "Watchers"
// @Success 200 {object} object{listing_id=int,watchers=[]int}
// @Router /admin/listings/{id}/watchers [put]
func (s *Server) AdminReplaceWatchers(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		UserIDs []uint `json:"user_ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	watchers, err := s.adminService.ReplaceWatchers(c.UserContext(), listingID, req.UserIDs)
	if err != nil {
		return respondError(c, err)
	}
	if watchers == nil {
		watchers = []uint{}
	}
	return c.JSON(fiber.Map{"listing_id": listingID, "watchers": watchers})
}

// PromoteToAdmin handles POST /api/admin/users/:id/promote-admin
// @Summary Admin: grant admin
// @Tags admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/promote-admin [post]
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, true)
}

// DemoteFromAdmin handles POST /api/admin/users/:id/demote-admin
// @Summary Admin: revoke admin
// @Tags admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/demote-admin [post]
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, false)
}

func (s *Server) setAdmin(c *fiber.Ctx, isAdmin bool) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.accountService.SetAdmin(c.UserContext(), userID, isAdmin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
