package ai

import "context"

// Text generation steps never fail loudly: on any internal error they return
// a fixed sentinel string the pipeline can recognize. The sentinels gate
// persistence: an article whose fields contain any of these is never cached.
const (
	SummaryFailed     = "(Summary generation failed)"
	CaptionFailed     = "(Caption generation failed)"
	ImagePromptFailed = "(Image prompt generation failed)"

	NoSummaryReturned     = "(No summary returned)"
	NoCaptionReturned     = "(No caption returned)"
	NoImagePromptReturned = "(No image prompt returned)"
)

// Generator produces the three text artifacts for an article or topic.
// Implementations must not return errors; they substitute the sentinel for
// the failing step so one bad call never blocks the rest of the chain.
type Generator interface {
	// Summary summarizes an article by title and URL, or a free-text topic
	// (pass the topic text as both arguments).
	Summary(ctx context.Context, title, url string) string

	// Caption writes an Instagram caption from a summary.
	Caption(ctx context.Context, summary string) string

	// ImagePrompt writes an image-generation prompt from a summary.
	ImagePrompt(ctx context.Context, summary string) string
}

// ImageGenerator renders a prompt to a local image file. Unlike the text
// steps there is no safe sentinel for a missing image, so failures are
// returned as errors and the caller decides.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
