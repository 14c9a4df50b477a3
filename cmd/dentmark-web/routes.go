package main

import (
	"net/http"

	dentmark "github.com/Gibihakkasy/dental-clinic-marketing"
)

// newRouter sets up all routes using Go 1.22+ enhanced routing.
func newRouter(engine *dentmark.Engine) http.Handler {
	mux := http.NewServeMux()

	h := &handlers{engine: engine}

	mux.HandleFunc("GET /bots", h.handleBots)

	// Feed views
	mux.HandleFunc("GET /get_rss_articles", h.handleArticles)
	mux.HandleFunc("GET /get_rss_articles_grouped", h.handleArticlesGrouped)

	// Plan generation and per-field regeneration
	mux.HandleFunc("POST /generate_social_plan", h.handleGeneratePlan)
	mux.HandleFunc("POST /regenerate_summary", h.handleRegenerateSummary)
	mux.HandleFunc("POST /regenerate_caption", h.handleRegenerateCaption)
	mux.HandleFunc("POST /regenerate_image_prompt", h.handleRegenerateImagePrompt)
	mux.HandleFunc("GET /download/{filename}", h.handleDownload)

	// Topic jobs
	mux.HandleFunc("POST /topics/generate", h.handleTopicGenerate)
	mux.HandleFunc("GET /topics/{id}/status", h.handleTopicStatus)
	mux.HandleFunc("GET /topics", h.handleTopicList)
	mux.HandleFunc("GET /topics/{id}", h.handleTopicGet)
	mux.HandleFunc("DELETE /topics/{id}", h.handleTopicDelete)

	// Images and publishing
	mux.HandleFunc("POST /generate_image_gpt", h.handleGenerateImage)
	mux.HandleFunc("POST /check_cached_image", h.handleCheckCachedImage)
	mux.HandleFunc("POST /post_to_instagram", h.handlePostToInstagram)

	return mux
}
