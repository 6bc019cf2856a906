package seed

import (
	_ "embed"
	"errors"
	"fmt"

	"agora/internal/models"
	"agora/internal/wiki"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed preset.yml
var presetYAML []byte

// Page is a starter encyclopedia entry.
type Page struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// Preset is the fixed data every fresh install starts with.
type Preset struct {
	Categories []string `yaml:"categories"`
	Pages      []Page   `yaml:"pages"`
}

// LoadPreset parses the embedded preset.
func LoadPreset() (*Preset, error) {
	return ParsePreset(presetYAML)
}

// ParsePreset parses a preset document.
func ParsePreset(raw []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	for _, page := range p.Pages {
		if err := wiki.ValidateTitle(page.Title); err != nil {
			return nil, fmt.Errorf("preset page %q: %w", page.Title, err)
		}
	}
	return &p, nil
}

// ApplyPreset inserts the preset's categories and pages. Existing categories
// and pages are left untouched, so it can run on every seed.
func ApplyPreset(db *gorm.DB, store *wiki.Store, p *Preset) error {
	for _, name := range p.Categories {
		category := models.Category{Name: name}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&category).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}

	if store == nil {
		return nil
	}
	for _, page := range p.Pages {
		if err := store.Create(page.Title, page.Content); err != nil && !errors.Is(err, wiki.ErrExists) {
			return fmt.Errorf("seed page %q: %w", page.Title, err)
		}
	}
	return nil
}
