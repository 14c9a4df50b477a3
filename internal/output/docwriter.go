package output

import (
	"fmt"
	"html"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Gibihakkasy/dental-clinic-marketing/internal/feeds"
)

// DocWriter renders a content plan to a markdown file under the documents
// directory. Generated text may carry HTML fragments from upstream feeds, so
// everything is stripped to plain text before it lands in the document.
type DocWriter struct {
	dir      string
	sanitize *bluemonday.Policy
	now      func() time.Time
}

// NewDocWriter creates a writer that stores plans under dir.
func NewDocWriter(dir string) *DocWriter {
	if dir == "" {
		dir = "documents"
	}
	return &DocWriter{
		dir:      dir,
		sanitize: bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

// Dir returns the documents directory the writer saves into.
func (w *DocWriter) Dir() string {
	return w.dir
}

// Write renders the grouped plan and returns the generated filename. Only
// articles with content get the summary, caption, and image prompt block;
// unselected articles appear as bare list entries.
func (w *DocWriter) Write(groups []feeds.FeedGroup) (string, error) {
	stamp := w.now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("social_plan_%s.md", stamp)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create documents dir: %w", err)
	}

	var doc strings.Builder
	doc.WriteString("# Dental Clinic Social Media Content Plan\n\n")
	fmt.Fprintf(&doc, "Generated: %s\n", stamp)

	for _, group := range groups {
		fmt.Fprintf(&doc, "\n## %s\n\n", w.plain(group.FeedTitle))
		fmt.Fprintf(&doc, "Feed URL: %s\n\n", group.FeedURL)

		for _, article := range group.Articles {
			fmt.Fprintf(&doc, "- %s (%s)\n", w.plain(article.Title), article.Link)
			if article.Summary == nil {
				continue
			}
			fmt.Fprintf(&doc, "  - Summary: %s\n", w.plain(*article.Summary))
			if article.Caption != nil {
				fmt.Fprintf(&doc, "  - IG Caption: %s\n", w.plain(*article.Caption))
			}
			if article.ImagePrompt != nil {
				fmt.Fprintf(&doc, "  - Image Prompt: %s\n", w.plain(*article.ImagePrompt))
			}
		}
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, []byte(doc.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write plan document: %w", err)
	}
	log.Printf("output: generated plan document %s", filename)
	return filename, nil
}

// plain strips HTML tags and unescapes entities, collapsing the result onto
// a single line so it cannot break the markdown structure.
func (w *DocWriter) plain(s string) string {
	s = html.UnescapeString(w.sanitize.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}
