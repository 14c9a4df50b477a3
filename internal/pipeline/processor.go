package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Gibihakkasy/dental-clinic-marketing/internal/ai"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/feeds"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/storage"
)

// ProcessingFailed marks all three content fields when an article blows up
// outside the per-step sentinel guards (bad input, storage write failure).
// Distinct from the per-step sentinels so the client can tell them apart.
const ProcessingFailed = "(Processing failed)"

// ErrNoSelection is returned when a plan is requested with no articles.
var ErrNoSelection = errors.New("no articles selected")

// Selection identifies one article inside the grouped fetch result.
type Selection struct {
	FeedURL     string `json:"feed_url"`
	ArticleLink string `json:"article_link"`
}

// Plan is the outcome of a batch generation pass: the written document and
// the grouped view with content filled in for selected articles.
type Plan struct {
	File    string            `json:"file"`
	Grouped []feeds.FeedGroup `json:"grouped"`
}

// Fetcher is the slice of the feed fetcher the processor needs.
type Fetcher interface {
	FetchGrouped(ctx context.Context) []feeds.FeedGroup
}

// DocumentWriter renders a grouped plan to a file and returns its filename.
type DocumentWriter interface {
	Write(groups []feeds.FeedGroup) (string, error)
}

// Processor runs the cache-or-generate decision per article and orchestrates
// batch plans over a bounded worker pool.
type Processor struct {
	store   storage.Store
	gen     ai.Generator
	fetcher Fetcher
	writer  DocumentWriter
	workers int
}

// NewProcessor wires the pipeline. workers bounds batch parallelism.
func NewProcessor(store storage.Store, gen ai.Generator, fetcher Fetcher, writer DocumentWriter, workers int) *Processor {
	if workers <= 0 {
		workers = 4
	}
	return &Processor{
		store:   store,
		gen:     gen,
		fetcher: fetcher,
		writer:  writer,
		workers: workers,
	}
}

// ProcessArticle fills the article's content fields, consulting the cache
// first. A hit counts only when the cached title still matches the fetched
// title, so a stale row from before an upstream title edit is regenerated
// rather than served. On a hit nothing is generated and all three flags
// report true. On a miss the chain runs summary → caption → image prompt;
// the result is persisted only when every step produced real content, so a
// partial failure forces a full retry on the next access.
//
// Failures never escape: a panic or an unusable article leaves all three
// fields set to ProcessingFailed, flags false, so batch siblings keep going.
func (p *Processor) ProcessArticle(ctx context.Context, article *feeds.Article) (status feeds.CacheStatus) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: failed to process article %q: %v", article.Title, r)
			setContent(article, ProcessingFailed, ProcessingFailed, ProcessingFailed)
			status = feeds.CacheStatus{}
		}
	}()

	if article.Link == "" || article.Title == "" {
		log.Printf("pipeline: article missing title or link, skipping generation")
		setContent(article, ProcessingFailed, ProcessingFailed, ProcessingFailed)
		return feeds.CacheStatus{}
	}

	if cached := p.store.GetArticle(article.Link); cached != nil && cached.Title == article.Title {
		log.Printf("pipeline: cache hit for %q", article.Title)
		setContent(article, cached.Summary, cached.Caption, cached.ImagePrompt)
		return feeds.CacheStatus{Summary: true, Caption: true, ImagePrompt: true}
	}

	log.Printf("pipeline: generating content for %q", article.Title)
	summary := p.gen.Summary(ctx, article.Title, article.Link)
	caption := p.gen.Caption(ctx, summary)
	imagePrompt := p.gen.ImagePrompt(ctx, summary)
	setContent(article, summary, caption, imagePrompt)

	if fullyGenerated(summary, caption, imagePrompt) {
		err := p.store.SaveArticle(&storage.CachedArticle{
			Title:       article.Title,
			Link:        article.Link,
			Summary:     summary,
			Caption:     caption,
			ImagePrompt: imagePrompt,
		})
		if err != nil {
			log.Printf("pipeline: failed to cache article %q: %v", article.Title, err)
			setContent(article, ProcessingFailed, ProcessingFailed, ProcessingFailed)
			return feeds.CacheStatus{}
		}
	}
	return feeds.CacheStatus{}
}

// GeneratePlan fetches a fresh grouped view, fills in content for the
// selected articles (cache-first, parallel generation for the rest), writes
// the plan document, and returns both.
func (p *Processor) GeneratePlan(ctx context.Context, selections []Selection) (*Plan, error) {
	if len(selections) == 0 {
		return nil, ErrNoSelection
	}

	grouped := p.fetcher.FetchGrouped(ctx)

	selected := make(map[Selection]bool, len(selections))
	for _, s := range selections {
		selected[s] = true
	}

	var queue []*feeds.Article
	for gi := range grouped {
		group := &grouped[gi]
		for i := range group.Articles {
			article := &group.Articles[i]
			if !selected[Selection{FeedURL: group.FeedURL, ArticleLink: article.Link}] {
				// Clear fields so stale content from a previous pass
				// never leaks into the document.
				article.Summary = nil
				article.Caption = nil
				article.ImagePrompt = nil
				article.CacheStatus = nil
				continue
			}

			// Accept the cached copy only when the upstream title still
			// matches; a title edit invalidates the cached content.
			if cached := p.store.GetArticle(article.Link); cached != nil && cached.Title == article.Title {
				setContent(article, cached.Summary, cached.Caption, cached.ImagePrompt)
				article.CacheStatus = &feeds.CacheStatus{Summary: true, Caption: true, ImagePrompt: true}
				continue
			}

			article.CacheStatus = &feeds.CacheStatus{}
			queue = append(queue, article)
		}
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)
	for _, article := range queue {
		wg.Add(1)
		go func(a *feeds.Article) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			// Flags were fixed at enqueue time and are not overwritten.
			p.ProcessArticle(ctx, a)
		}(article)
	}
	wg.Wait()

	file, err := p.writer.Write(grouped)
	if err != nil {
		return nil, fmt.Errorf("write plan document: %w", err)
	}
	return &Plan{File: file, Grouped: grouped}, nil
}

// RegenerateSummary re-runs the summary step for a cached article and
// persists the result. The article must already exist in the cache.
func (p *Processor) RegenerateSummary(ctx context.Context, link string) (string, error) {
	cached := p.store.GetArticle(link)
	if cached == nil {
		return "", storage.ErrNotFound
	}
	summary := p.gen.Summary(ctx, cached.Title, cached.Link)
	cached.Summary = summary
	if err := p.store.SaveArticle(cached); err != nil {
		return "", fmt.Errorf("save regenerated summary: %w", err)
	}
	return summary, nil
}

// RegenerateTopicSummary re-runs the summary step for a stored topic.
func (p *Processor) RegenerateTopicSummary(ctx context.Context, topicID string) (string, error) {
	topic, err := p.store.GetTopic(topicID)
	if err != nil {
		return "", err
	}
	summary := p.gen.Summary(ctx, topic.Topic, topic.Topic)
	topic.Summary = summary
	if _, err := p.store.SaveTopic(topic); err != nil {
		return "", fmt.Errorf("save regenerated topic summary: %w", err)
	}
	return summary, nil
}

// RegenerateCaption re-runs the caption step from the cached summary.
func (p *Processor) RegenerateCaption(ctx context.Context, link string) (string, error) {
	cached := p.store.GetArticle(link)
	if cached == nil {
		return "", storage.ErrNotFound
	}
	caption := p.gen.Caption(ctx, cached.Summary)
	cached.Caption = caption
	if err := p.store.SaveArticle(cached); err != nil {
		return "", fmt.Errorf("save regenerated caption: %w", err)
	}
	return caption, nil
}

// RegenerateImagePrompt re-runs the image-prompt step from the cached summary.
func (p *Processor) RegenerateImagePrompt(ctx context.Context, link string) (string, error) {
	cached := p.store.GetArticle(link)
	if cached == nil {
		return "", storage.ErrNotFound
	}
	imagePrompt := p.gen.ImagePrompt(ctx, cached.Summary)
	cached.ImagePrompt = imagePrompt
	if err := p.store.SaveArticle(cached); err != nil {
		return "", fmt.Errorf("save regenerated image prompt: %w", err)
	}
	return imagePrompt, nil
}

func setContent(article *feeds.Article, summary, caption, imagePrompt string) {
	article.Summary = &summary
	article.Caption = &caption
	article.ImagePrompt = &imagePrompt
}

// fullyGenerated reports whether every step produced persistable content:
// no failure sentinels, nothing blank. Partial success is never cached.
func fullyGenerated(summary, caption, imagePrompt string) bool {
	for _, pair := range [][2]string{
		{summary, ai.SummaryFailed},
		{caption, ai.CaptionFailed},
		{imagePrompt, ai.ImagePromptFailed},
	} {
		if pair[0] == pair[1] || strings.TrimSpace(pair[0]) == "" {
			return false
		}
	}
	return true
}
