package server

import (
	"net/url"

	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
)

const wikiEntriesPath = "/api/wiki/entries/"

func entryLocation(title string) string {
	return wikiEntriesPath + url.PathEscape(title)
}

// titleParam returns the decoded :title route parameter.
func titleParam(c *fiber.Ctx) (string, error) {
	title, err := url.PathUnescape(c.Params("title"))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid title"))
		return "", errResponseWritten
	}
	return title, nil
}

// ListEntries handles GET /api/wiki/entries
// @Summary Encyclopedia entries
// @Tags wiki
// @Produce json
// @Success 200 {array} string
// @Router /wiki/entries [get]
func (s *Server) ListEntries(c *fiber.Ctx) error {
	titles, err := s.wikiService.ListEntries(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(titles)
}

// GetEntry handles GET /api/wiki/entries/:title
// @Summary Encyclopedia entry
// @Description Markdown source plus sanitised HTML
// @Tags wiki
// @Produce json
// @Param title path string true "Entry title"
// @Success 200 {object} service.EntryView
// @Failure 404 {object} models.ErrorResponse
// @Router /wiki/entries/{title} [get]
func (s *Server) GetEntry(c *fiber.Ctx) error {
	title, err := titleParam(c)
	if err != nil {
		return nil
	}
	entry, err := s.wikiService.GetEntry(c.UserContext(), title)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

// CreateEntry handles POST /api/wiki/entries
// @Summary Create entry
// @Tags wiki
// @Accept json
// @Produce json
// @Param request body object{title=string,content=string} true "Entry"
// @Success 201 {object} service.EntryView
// @Failure 409 {object} models.ErrorResponse
// @Router /wiki/entries [post]
func (s *Server) CreateEntry(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	entry, err := s.wikiService.CreateEntry(c.UserContext(), req.Title, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	c.Location(entryLocation(entry.Title))
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// SaveEntry handles PUT /api/wiki/entries/:title
// @Summary Create or replace entry
// @Tags wiki
// @Accept json
// @Produce json
// @Param title path string true "Entry title"
// @Param request body object{content=string} true "Markdown"
// @Success 200 {object} service.EntryView
// @Router /wiki/entries/{title} [put]
func (s *Server) SaveEntry(c *fiber.Ctx) error {
	title, err := titleParam(c)
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	entry, err := s.wikiService.SaveEntry(c.UserContext(), title, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

// SearchEntries handles GET /api/wiki/search?q=
// @Summary Search entries
// @Description Redirects to the entry on an exact match, otherwise lists partial matches
// @Tags wiki
// @Produce json
// @Param q query string true "Query"
// @Success 200 {object} service.SearchResult
// @Success 303
// @Failure 404 {object} models.ErrorResponse
// @Router /wiki/search [get]
func (s *Server) SearchEntries(c *fiber.Ctx) error {
	result, err := s.wikiService.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	if result.Exact != "" {
		return c.Redirect(entryLocation(result.Exact), fiber.StatusSeeOther)
	}
	return c.JSON(result)
}

// RandomEntry handles GET /api/wiki/random
// @Summary Random entry
// @Tags wiki
// @Success 303
// @Failure 404 {object} models.ErrorResponse
// @Router /wiki/random [get]
func (s *Server) RandomEntry(c *fiber.Ctx) error {
	title, err := s.wikiService.RandomEntry(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect(entryLocation(title), fiber.StatusSeeOther)
}
