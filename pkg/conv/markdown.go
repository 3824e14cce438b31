package conv

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions   = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags    = html.CommonFlags
	exportPolicy = bluemonday.NewPolicy()
)

func init() {
	exportPolicy.AllowElements(
		"p", "br", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"b", "strong", "i", "em", "u", "s", "del",
		"code", "pre", "blockquote",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	exportPolicy.AllowAttrs("href").OnElements("a")
	exportPolicy.AllowURLSchemes("http", "https", "mailto")
	exportPolicy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")
}

// MarkdownToHTML renders md and strips everything outside the export
// allow-list, so model output cannot inject scripts into saved pages.
func MarkdownToHTML(md []byte) string {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return string(exportPolicy.SanitizeBytes(unsafeHTML))
}

// MarkdownToText flattens md into readable plain text.
func MarkdownToText(md []byte) (string, error) {
	return html2text.FromString(MarkdownToHTML(md), html2text.Options{
		OmitLinks:    false,
		PrettyTables: true,
	})
}
