package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "heading and emphasis",
			source:   "# Python\n\nPython is **great**.",
			contains: []string{`<h1 id="python">Python</h1>`, "<strong>great</strong>"},
		},
		{
			name:     "links",
			source:   "See [Django](/wiki/Django).",
			contains: []string{`<a href="/wiki/Django"`},
		},
		{
			name:     "autolinks",
			source:   "Visit https://go.dev today",
			contains: []string{`<a href="https://go.dev"`},
		},
		{
			name:     "tables",
			source:   "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "raw script is dropped",
			source:   "hello <script>alert(1)</script>",
			excludes: []string{"<script", "alert(1)</script>"},
		},
		{
			name:     "javascript links are stripped",
			source:   "[x](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := r.Render(tt.source)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, html, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, html, unwanted)
			}
		})
	}
}
