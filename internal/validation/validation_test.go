package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "hunter22", false},
		{"Exactly Max Length", strings.Repeat("a", 127) + "1", false},
		{"Too Short", "abc123", true},
		{"Too Long", strings.Repeat("a", 128) + "1", true},
		{"No Digit", "passwordonly", true},
		{"No Letter", "1234567890", true},
		{"Unicode Letters", "Ångström42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Dashes", "jean-luc", false},
		{"Too Short", "tu", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Spaces", "two words", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("harry@example.com"))
	assert.Error(t, ValidateEmail("harry@example"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"))
}

func TestValidateLength(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateLength("title", "Lamp", 200))
	assert.EqualError(t, ValidateLength("title", "   ", 200), "title is required")
	assert.EqualError(t, ValidateLength("text", strings.Repeat("é", 201), 200), "text must not exceed 200 characters")
	assert.NoError(t, ValidateLength("text", strings.Repeat("é", 200), 200))
}

func TestValidateImageURL(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateImageURL(""))
	assert.NoError(t, ValidateImageURL("https://images.example.com/lamp.png"))
	assert.Error(t, ValidateImageURL("/relative/lamp.png"))
	assert.Error(t, ValidateImageURL("ftp://example.com/lamp.png"))
	assert.Error(t, ValidateImageURL("https://example.com/"+strings.Repeat("a", 200)))
}
