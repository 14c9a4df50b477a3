package dentmark

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/Gibihakkasy/dental-clinic-marketing/internal/ai"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/feeds"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/output"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/pipeline"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/publish"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/storage"
)

// Engine is the public API for the content pipeline. It owns the store,
// the feed fetcher, the generation chain, and the publishers.
type Engine struct {
	cfg        *Config
	store      storage.Store
	fetcher    *feeds.Fetcher
	processor  *pipeline.Processor
	jobs       *pipeline.JobRunner
	writer     *output.DocWriter
	imageGen   ImageGenerator
	cloudinary *publish.Cloudinary
	instagram  *publish.Instagram
}

// NewEngine creates an engine with the provider selected by the config.
func NewEngine(cfg *Config) (*Engine, error) {
	var gen Generator
	var imageGen ImageGenerator

	switch cfg.Provider {
	case "ollama":
		ollama, err := ai.NewOllama(cfg.Ollama.BaseURL, cfg.Ollama.Model)
		if err != nil {
			return nil, fmt.Errorf("create ollama provider: %w", err)
		}
		gen = ollama
		// Ollama has no image model; image endpoints will report that.
	case "openai", "":
		openai := ai.NewOpenAI(ai.OpenAIConfig{
			APIKey:           cfg.OpenAI.APIKey,
			SummaryModel:     cfg.OpenAI.SummaryModel,
			CaptionModel:     cfg.OpenAI.CaptionModel,
			ImagePromptModel: cfg.OpenAI.ImagePromptModel,
			ImageModel:       cfg.OpenAI.ImageModel,
			ImageDir:         cfg.ImageDir,
		})
		gen = openai
		imageGen = openai
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return NewEngineWithProvider(cfg, gen, imageGen)
}

// NewEngineWithProvider creates an engine around an explicit generation
// backend. imageGen may be nil for providers without an image model.
func NewEngineWithProvider(cfg *Config, gen Generator, imageGen ImageGenerator) (*Engine, error) {
	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	fetcher := feeds.NewFetcher(cfg.Feeds, cfg.Workers)
	writer := output.NewDocWriter(cfg.DocumentsDir)

	return &Engine{
		cfg:       cfg,
		store:     store,
		fetcher:   fetcher,
		processor: pipeline.NewProcessor(store, gen, fetcher, writer, cfg.Workers),
		jobs:      pipeline.NewJobRunner(store, gen),
		writer:    writer,
		imageGen:  imageGen,
		cloudinary: publish.NewCloudinary(publish.CloudinaryConfig{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
		}),
		instagram: publish.NewInstagram(publish.InstagramConfig{
			AccessToken:       cfg.Instagram.AccessToken,
			PageID:            cfg.Instagram.PageID,
			BusinessAccountID: cfg.Instagram.BusinessAccountID,
		}),
	}, nil
}

// Close releases the underlying database.
func (e *Engine) Close() error {
	return e.store.Close()
}

// DocumentsDir returns the directory plan documents are written to.
func (e *Engine) DocumentsDir() string {
	return e.writer.Dir()
}

// FetchArticles returns the newest unique articles across all feeds,
// deduplicated and capped at the configured top-K.
func (e *Engine) FetchArticles(ctx context.Context) []Article {
	return e.fetcher.FetchUniqueTop(ctx, e.cfg.TopArticles)
}

// FetchGrouped returns one group per configured feed.
func (e *Engine) FetchGrouped(ctx context.Context) []FeedGroup {
	return e.fetcher.FetchGrouped(ctx)
}

// GeneratePlan builds a content plan for the selected articles and writes
// the plan document.
func (e *Engine) GeneratePlan(ctx context.Context, selections []Selection) (*Plan, error) {
	return e.processor.GeneratePlan(ctx, selections)
}

// RegenerateSummary re-runs the summary step for a cached article.
func (e *Engine) RegenerateSummary(ctx context.Context, articleLink string) (string, error) {
	return e.processor.RegenerateSummary(ctx, articleLink)
}

// RegenerateTopicSummary re-runs the summary step for a stored topic.
func (e *Engine) RegenerateTopicSummary(ctx context.Context, topicID string) (string, error) {
	return e.processor.RegenerateTopicSummary(ctx, topicID)
}

// RegenerateCaption re-runs the caption step for a cached article.
func (e *Engine) RegenerateCaption(ctx context.Context, articleLink string) (string, error) {
	return e.processor.RegenerateCaption(ctx, articleLink)
}

// RegenerateImagePrompt re-runs the image prompt step for a cached article.
func (e *Engine) RegenerateImagePrompt(ctx context.Context, articleLink string) (string, error) {
	return e.processor.RegenerateImagePrompt(ctx, articleLink)
}

// SubmitTopic starts a background topic generation job and returns its id.
func (e *Engine) SubmitTopic(topic string) string {
	return e.jobs.Submit(topic)
}

// TopicStatus returns the latest snapshot for a topic generation job.
func (e *Engine) TopicStatus(id string) (*JobSnapshot, error) {
	return e.jobs.Status(id)
}

// ListTopics returns stored topic previews, newest first.
func (e *Engine) ListTopics(limit, offset int) ([]TopicPreview, error) {
	return e.store.ListTopics(limit, offset)
}

// GetTopic returns a stored topic by id.
func (e *Engine) GetTopic(id string) (*Topic, error) {
	return e.store.GetTopic(id)
}

// DeleteTopic removes a stored topic, reporting whether it existed.
func (e *Engine) DeleteTopic(id string) (bool, error) {
	return e.store.DeleteTopic(id)
}

// ImageResult is the outcome of an image generation or cache lookup.
type ImageResult struct {
	URL       string `json:"image_url"`
	FromCache bool   `json:"from_cache"`
}

// GenerateImage renders an image for the prompt, memoized by prompt hash.
// Unless force is set, a previously generated URL is returned as-is. Fresh
// images are uploaded to Cloudinary when configured, otherwise the local
// file path is returned.
func (e *Engine) GenerateImage(ctx context.Context, prompt string, force bool) (*ImageResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("image prompt is empty")
	}
	key := imageCacheKey(prompt)

	if !force {
		if raw, ok := e.store.CacheGet(key); ok {
			return &ImageResult{URL: string(raw), FromCache: true}, nil
		}
	}
	if e.imageGen == nil {
		return nil, fmt.Errorf("image generation is not supported by the %s provider", e.cfg.Provider)
	}

	path, err := e.imageGen.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	url := path
	if e.cloudinary.Configured() {
		uploaded, err := e.cloudinary.Upload(ctx, path, key)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		url = uploaded
	}

	if err := e.store.CacheSet(key, []byte(url), 0); err != nil {
		log.Printf("dentmark: failed to cache image url: %v", err)
	}
	return &ImageResult{URL: url}, nil
}

// CheckCachedImage reports whether an image was already generated for the
// prompt, without generating one.
func (e *Engine) CheckCachedImage(prompt string) *ImageResult {
	if raw, ok := e.store.CacheGet(imageCacheKey(prompt)); ok {
		return &ImageResult{URL: string(raw), FromCache: true}
	}
	return &ImageResult{}
}

// PublishPost publishes a caption and image to the clinic's Instagram
// account. An empty image URL falls back to the stock clinic image.
func (e *Engine) PublishPost(ctx context.Context, caption, imageURL string) (*PostResult, error) {
	return e.instagram.Post(ctx, caption, imageURL)
}

func imageCacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "img_" + hex.EncodeToString(sum[:8])
}
