package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"agora/internal/cache"
	"agora/internal/markdown"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/wiki"

	"github.com/gosimple/slug"
	"github.com/spf13/afero"
)

// EntryView is an entry with its rendered HTML.
type EntryView struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	HTML    string `json:"html"`
}

// SearchResult is either an exact hit (Exact set) or a list of partial matches.
type SearchResult struct {
	Query   string   `json:"query"`
	Exact   string   `json:"-"`
	Entries []string `json:"entries"`
}

type WikiService struct {
	store    *wiki.Store
	renderer *markdown.Renderer
	pick     func(n int) int
}

func NewWikiService(store *wiki.Store, renderer *markdown.Renderer) *WikiService {
	return &WikiService{store: store, renderer: renderer, pick: rand.IntN}
}

func pageNotFound() *models.AppError {
	return models.NewNotFoundMessage("Page not found.")
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wiki.ErrNotFound):
		return pageNotFound()
	case errors.Is(err, wiki.ErrExists):
		return models.NewConflictError("Page already exists.")
	case errors.Is(err, wiki.ErrInvalidTitle):
		return models.NewValidationError(strings.TrimPrefix(err.Error(), wiki.ErrInvalidTitle.Error()+": "))
	default:
		return models.NewInternalError(err)
	}
}

func (s *WikiService) ListEntries(_ context.Context) ([]string, error) {
	titles, err := s.store.List()
	return titles, mapStoreError(err)
}

// GetEntry loads an entry and its HTML. Rendered HTML is cached under a
// digest of the content read here, so a cached render always matches it.
func (s *WikiService) GetEntry(ctx context.Context, title string) (*EntryView, error) {
	entry, err := s.store.Get(title)
	if err != nil {
		return nil, mapStoreError(err)
	}

	var html string
	err = cache.Aside(ctx, cache.WikiHTMLKey(entry.Content), &html, cache.WikiHTMLTTL, func() error {
		rendered, err := s.renderer.Render(entry.Content)
		if err != nil {
			return models.NewInternalError(err)
		}
		html = rendered
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &EntryView{Title: entry.Title, Content: entry.Content, HTML: html}, nil
}

// Search returns an exact hit when the query names an entry, otherwise every
// title containing the query, ignoring case.
func (s *WikiService) Search(_ context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required.")
	}

	if title, err := s.store.Resolve(query); err == nil {
		return &SearchResult{Query: query, Exact: title, Entries: []string{title}}, nil
	} else if !errors.Is(err, wiki.ErrNotFound) {
		return nil, mapStoreError(err)
	}

	titles, err := s.store.List()
	if err != nil {
		return nil, mapStoreError(err)
	}
	needle := strings.ToLower(query)
	needleSlug := slug.Make(query)
	matches := []string{}
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), needle) ||
			(needleSlug != "" && strings.Contains(slug.Make(t), needleSlug)) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return nil, models.NewNotFoundMessage("No matches found.")
	}
	return &SearchResult{Query: query, Entries: matches}, nil
}

func (s *WikiService) CreateEntry(ctx context.Context, title, content string) (*EntryView, error) {
	if err := s.store.Create(title, content); err != nil {
		return nil, mapStoreError(err)
	}
	observability.WikiWrites.WithLabelValues("create").Inc()
	return s.GetEntry(ctx, title)
}

// SaveEntry creates or replaces an entry.
func (s *WikiService) SaveEntry(ctx context.Context, title, content string) (*EntryView, error) {
	stored, err := s.store.Save(title, content)
	if err != nil {
		return nil, mapStoreError(err)
	}
	observability.WikiWrites.WithLabelValues("update").Inc()
	return s.GetEntry(ctx, stored)
}

// RandomEntry picks any stored title.
func (s *WikiService) RandomEntry(_ context.Context) (string, error) {
	titles, err := s.store.List()
	if err != nil {
		return "", mapStoreError(err)
	}
	if len(titles) == 0 {
		return "", models.NewNotFoundMessage("The encyclopedia has no entries yet.")
	}
	return titles[s.pick(len(titles))], nil
}

// Import saves every markdown file found in dir on src and returns how many
// entries were written.
func (s *WikiService) Import(_ context.Context, src afero.Fs, dir string) (int, error) {
	entries, err := wiki.ReadDir(src, dir)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	for i, e := range entries {
		if _, err := s.store.Save(e.Title, e.Content); err != nil {
			return i, mapStoreError(err)
		}
		observability.WikiWrites.WithLabelValues("import").Inc()
	}
	return len(entries), nil
}
