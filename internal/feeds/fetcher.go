package feeds

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// maxPerFeed caps how many entries are accepted from a single source.
const maxPerFeed = 5

// Article is one feed entry, identified by its normalized link. The content
// fields are nil after a fetch and are filled in by the generation pipeline,
// which mutates articles in place inside their group.
type Article struct {
	Title       string       `json:"title"`
	Link        string       `json:"link"`
	Summary     *string      `json:"summary"`
	Caption     *string      `json:"caption"`
	ImagePrompt *string      `json:"imagePrompt"`
	Published   time.Time    `json:"published"`
	CacheStatus *CacheStatus `json:"cache_status,omitempty"`
}

// CacheStatus reports, per content field, whether the value came from the
// persistent cache rather than a fresh generation call.
type CacheStatus struct {
	Summary     bool `json:"summary"`
	Caption     bool `json:"caption"`
	ImagePrompt bool `json:"imagePrompt"`
}

// FeedGroup is the per-source view of a fetch pass. A source that failed to
// fetch or parse yields a group with no articles and its URL as the title.
type FeedGroup struct {
	FeedTitle string    `json:"feed_title"`
	FeedURL   string    `json:"feed_url"`
	Articles  []Article `json:"articles"`
}

// Fetcher retrieves the configured RSS sources in parallel.
type Fetcher struct {
	parser  *gofeed.Parser
	sources []string
	workers int
	timeout time.Duration
}

// NewFetcher creates a fetcher over the given source URLs.
func NewFetcher(sources []string, workers int) *Fetcher {
	if workers <= 0 {
		workers = 4
	}
	parser := gofeed.NewParser()
	parser.UserAgent = "dental-clinic-marketing/1.0"
	return &Fetcher{
		parser:  parser,
		sources: sources,
		workers: workers,
		timeout: 30 * time.Second,
	}
}

// FetchGrouped fetches every source and returns one group per source, in
// completion order. A failing source never aborts its siblings; it shows up
// as an empty group keyed by its URL.
func (f *Fetcher) FetchGrouped(ctx context.Context) []FeedGroup {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		groups []FeedGroup
	)

	sem := make(chan struct{}, f.workers)
	for _, src := range f.sources {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			group := f.fetchOne(ctx, url)
			mu.Lock()
			groups = append(groups, group)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return groups
}

// FetchUniqueTop flattens all groups into a single list deduplicated by
// title and by normalized link (first seen wins, across feeds), sorted by
// publish time descending and truncated to k.
func (f *Fetcher) FetchUniqueTop(ctx context.Context, k int) []Article {
	if k <= 0 {
		k = maxPerFeed
	}

	seenTitles := make(map[string]bool)
	seenLinks := make(map[string]bool)
	var entries []Article

	for _, group := range f.FetchGrouped(ctx) {
		for _, article := range group.Articles {
			if seenTitles[article.Title] || seenLinks[article.Link] {
				continue
			}
			seenTitles[article.Title] = true
			seenLinks[article.Link] = true
			entries = append(entries, article)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// fetchOne retrieves and parses a single source. Errors are logged and
// converted into an empty group so one bad feed cannot poison a fetch pass.
func (f *Fetcher) fetchOne(ctx context.Context, url string) FeedGroup {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(url, fetchCtx)
	if err != nil {
		log.Printf("feeds: failed to fetch %s: %v", url, err)
		return FeedGroup{FeedTitle: url, FeedURL: url}
	}

	title := parsed.Title
	if title == "" {
		title = url
	}

	group := FeedGroup{FeedTitle: title, FeedURL: url}
	seenTitles := make(map[string]bool)
	seenLinks := make(map[string]bool)

	for _, item := range parsed.Items {
		if len(group.Articles) >= maxPerFeed {
			break
		}
		article, ok := parseItem(item, seenTitles, seenLinks)
		if ok {
			group.Articles = append(group.Articles, article)
		}
	}
	return group
}

// parseItem converts a feed item to an Article, normalizing its link and
// recording it in the per-source dedup sets. Items without a usable title or
// link, and items already seen within this source, are skipped.
func parseItem(item *gofeed.Item, seenTitles, seenLinks map[string]bool) (Article, bool) {
	title := item.Title
	link := NormalizeLink(item.Link)
	if title == "" || link == "" {
		return Article{}, false
	}
	if seenTitles[title] || seenLinks[link] {
		return Article{}, false
	}
	seenTitles[title] = true
	seenLinks[link] = true

	// Entries without a parseable timestamp sort as most-recent.
	published := time.Now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return Article{Title: title, Link: link, Published: published}, true
}
