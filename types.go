// Package dentmark turns dental news feeds into ready-to-publish Instagram
// content for a dental clinic's marketing team. It aggregates RSS sources,
// runs a generative chain (summary, caption, image prompt, image) with a
// SQLite-backed content cache, and publishes finished posts.
package dentmark

import (
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/ai"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/feeds"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/pipeline"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/publish"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/storage"
)

// Public view of the internal data model. The internal packages own the
// types; the facade re-exports them so callers outside cmd/ never import
// internal paths.
type (
	// Article is one feed entry, with generated content once processed.
	Article = feeds.Article

	// FeedGroup is the per-source view of a fetch.
	FeedGroup = feeds.FeedGroup

	// CacheStatus reports, per content field, whether it came from cache.
	CacheStatus = feeds.CacheStatus

	// Topic is a stored topic-based generation result.
	Topic = storage.Topic

	// TopicPreview is the truncated listing view of a stored topic.
	TopicPreview = storage.TopicPreview

	// Selection identifies one article chosen for a content plan.
	Selection = pipeline.Selection

	// Plan is a generated content plan: document filename plus the
	// grouped articles with content filled in.
	Plan = pipeline.Plan

	// JobSnapshot is the polled state of a topic generation job.
	JobSnapshot = pipeline.Snapshot

	// PostResult reports a successful Instagram publish.
	PostResult = publish.PostResult

	// Generator produces the text content chain.
	Generator = ai.Generator

	// ImageGenerator renders an image from a prompt.
	ImageGenerator = ai.ImageGenerator
)

// ErrNotFound is returned when a topic, job, or cached article is missing.
var ErrNotFound = storage.ErrNotFound

// ErrNoSelection is returned when a plan is requested with no articles.
var ErrNoSelection = pipeline.ErrNoSelection

// Job states reported by JobSnapshot.Status.
const (
	JobSearching             = pipeline.StatusSearching
	JobGeneratingCaption     = pipeline.StatusGeneratingCaption
	JobGeneratingImagePrompt = pipeline.StatusGeneratingImagePrompt
	JobCompleted             = pipeline.StatusCompleted
	JobError                 = pipeline.StatusError
)
