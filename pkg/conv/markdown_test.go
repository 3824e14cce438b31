package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "<p>Hello world</p>\n",
		},
		{
			name:     "bold text",
			input:    "**bold**",
			expected: "<p><strong>bold</strong></p>\n",
		},
		{
			name:     "strikethrough",
			input:    "~~wrong~~",
			expected: "<p><del>wrong</del></p>\n",
		},
		{
			name:     "heading ids stripped",
			input:    "# Steelman",
			expected: "<h1>Steelman</h1>\n",
		},
		{
			name:     "code block with language",
			input:    "```go\nfunc main() {}\n```",
			expected: "<pre><code class=\"language-go\">func main() {}\n</code></pre>\n",
		},
		{
			name:     "link",
			input:    "[link](https://example.com)",
			expected: "<p><a href=\"https://example.com\">link</a></p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MarkdownToHTML([]byte(tt.input)))
		})
	}
}

func TestMarkdownToText(t *testing.T) {
	got, err := MarkdownToText([]byte("## Vulnerabilities\n\n- **Churn** is high\n- Pricing is unclear"))
	require.NoError(t, err)

	assert.Contains(t, got, "Vulnerabilities")
	assert.Contains(t, got, "Churn")
	assert.Contains(t, got, "is high")
	assert.Contains(t, got, "Pricing is unclear")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "**")
}

func TestMarkdownToHTML_StripsScripts(t *testing.T) {
	for _, input := range []string{
		"<script>alert('xss')</script>",
		"Fine text <script>alert('xss')</script> after",
		"[click](javascript:alert('xss'))",
	} {
		t.Run(input, func(t *testing.T) {
			got := MarkdownToHTML([]byte(input))
			assert.NotContains(t, got, "<script")
			assert.NotContains(t, got, "alert(")
		})
	}
}
