// Package wiki stores encyclopedia entries as one markdown file per title.
package wiki

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/gosimple/slug"
	"github.com/spf13/afero"
)

const (
	entryExt       = ".md"
	maxTitleLength = 100
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrExists       = errors.New("entry already exists")
	ErrInvalidTitle = errors.New("invalid entry title")
)

// Entry is a stored page.
type Entry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Store keeps entries under dir on fs. Reads share a lock; writes take it
// exclusively and replace files by renaming a fully written temp file.
type Store struct {
	fs  afero.Fs
	dir string
	mu  sync.RWMutex
}

// NewStore creates dir when it is missing.
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create wiki dir: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// NewOSStore is NewStore on the real filesystem.
func NewOSStore(dir string) (*Store, error) {
	return NewStore(afero.NewOsFs(), dir)
}

// ValidateTitle rejects titles that cannot be used as a file name.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: title is required", ErrInvalidTitle)
	case trimmed != title:
		return fmt.Errorf("%w: title must not start or end with spaces", ErrInvalidTitle)
	case len(title) > maxTitleLength:
		return fmt.Errorf("%w: title must not exceed %d characters", ErrInvalidTitle, maxTitleLength)
	case strings.ContainsAny(title, `/\`) || strings.Contains(title, ".."):
		return fmt.Errorf("%w: title must not contain path separators", ErrInvalidTitle)
	case strings.HasPrefix(title, "."):
		return fmt.Errorf("%w: title must not start with a dot", ErrInvalidTitle)
	case strings.IndexFunc(title, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: title must not contain control characters", ErrInvalidTitle)
	case slug.Make(title) == "":
		return fmt.Errorf("%w: title must contain a letter or digit", ErrInvalidTitle)
	}
	return nil
}

func (s *Store) path(title string) string {
	return filepath.Join(s.dir, title+entryExt)
}

// List returns every title in sorted order.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list()
}

func (s *Store) list() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("read wiki dir: %w", err)
	}
	titles := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, entryExt) || strings.HasPrefix(name, ".") {
			continue
		}
		titles = append(titles, strings.TrimSuffix(name, entryExt))
	}
	sort.Strings(titles)
	return titles, nil
}

// Resolve maps title to the stored spelling. An exact file wins; otherwise
// the first title whose slug matches is used, so "css" finds "CSS".
func (s *Store) Resolve(title string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(title)
}

func (s *Store) resolve(title string) (string, error) {
	if ValidateTitle(title) != nil {
		return "", ErrNotFound
	}
	if ok, err := afero.Exists(s.fs, s.path(title)); err != nil {
		return "", err
	} else if ok {
		return title, nil
	}

	want := slug.Make(title)
	titles, err := s.list()
	if err != nil {
		return "", err
	}
	for _, t := range titles {
		if slug.Make(t) == want {
			return t, nil
		}
	}
	return "", ErrNotFound
}

// Get returns the entry stored under title or its slug match.
func (s *Store) Get(title string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	canonical, err := s.resolve(title)
	if err != nil {
		return nil, err
	}
	content, err := afero.ReadFile(s.fs, s.path(canonical))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read entry %q: %w", canonical, err)
	}
	return &Entry{Title: canonical, Content: string(content)}, nil
}

// Create stores a new entry. It fails with ErrExists when the title or any
// title with the same slug is taken.
func (s *Store) Create(title, content string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolve(title); err == nil {
		return ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.write(title, content)
}

// Save creates or replaces an entry and returns the title it was stored under.
func (s *Store) Save(title, content string) (string, error) {
	if err := ValidateTitle(title); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	canonical, err := s.resolve(title)
	switch {
	case errors.Is(err, ErrNotFound):
		canonical = title
	case err != nil:
		return "", err
	}
	return canonical, s.write(canonical, content)
}

func (s *Store) write(title, content string) error {
	tmp, err := afero.TempFile(s.fs, s.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.WriteString(tmp, content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write entry %q: %w", title, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close entry %q: %w", title, err)
	}
	if err := s.fs.Rename(tmpName, s.path(title)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename entry %q: %w", title, err)
	}
	return nil
}

// ReadDir loads every markdown file in dir on src. Used to import pages
// written outside the application.
func ReadDir(src afero.Fs, dir string) ([]Entry, error) {
	infos, err := afero.ReadDir(src, dir)
	if err != nil {
		return nil, fmt.Errorf("read import dir: %w", err)
	}
	var entries []Entry
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, entryExt) {
			continue
		}
		content, err := afero.ReadFile(src, filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		entries = append(entries, Entry{Title: strings.TrimSuffix(name, entryExt), Content: string(content)})
	}
	return entries, nil
}
