package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gibihakkasy/dental-clinic-marketing/internal/feeds"
)

func strPtr(s string) *string { return &s }

func TestWritePlanDocument(t *testing.T) {
	dir := t.TempDir()
	w := NewDocWriter(dir)
	w.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	}

	groups := []feeds.FeedGroup{
		{
			FeedTitle: "Dental News",
			FeedURL:   "https://feed.example.com/rss",
			Articles: []feeds.Article{
				{
					Title:       "Teeth Whitening",
					Link:        "https://example.com/whitening",
					Summary:     strPtr("Ringkasan artikel."),
					Caption:     strPtr("Caption! 🦷"),
					ImagePrompt: strPtr("A bright smile"),
				},
				{
					Title: "Unselected Article",
					Link:  "https://example.com/other",
				},
			},
		},
	}

	filename, err := w.Write(groups)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filename != "social_plan_2026-03-14_09-30-00.md" {
		t.Errorf("filename = %q", filename)
	}

	raw, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	doc := string(raw)

	for _, want := range []string{
		"# Dental Clinic Social Media Content Plan",
		"## Dental News",
		"Feed URL: https://feed.example.com/rss",
		"- Teeth Whitening (https://example.com/whitening)",
		"  - Summary: Ringkasan artikel.",
		"  - IG Caption: Caption! 🦷",
		"  - Image Prompt: A bright smile",
		"- Unselected Article (https://example.com/other)",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(doc, "Unselected Article (https://example.com/other)\n  - Summary") {
		t.Error("unselected article should not have a content block")
	}
}

func TestWriteStripsHTML(t *testing.T) {
	w := NewDocWriter(t.TempDir())

	filename, err := w.Write([]feeds.FeedGroup{{
		FeedTitle: "Feed <script>alert(1)</script>",
		FeedURL:   "https://feed.example.com/rss",
		Articles: []feeds.Article{{
			Title:   "News",
			Link:    "https://example.com/a",
			Summary: strPtr("<p>Kesehatan &amp; kebersihan\ngigi</p>"),
		}},
	}})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(w.Dir(), filename))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	doc := string(raw)

	if strings.Contains(doc, "<script>") || strings.Contains(doc, "<p>") {
		t.Error("HTML tags leaked into document")
	}
	if !strings.Contains(doc, "Summary: Kesehatan & kebersihan gigi") {
		t.Errorf("expected unescaped single-line summary, got:\n%s", doc)
	}
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "documents")
	w := NewDocWriter(dir)

	if _, err := w.Write(nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("documents dir not created: %v", err)
	}
}
