package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	dentmark "github.com/Gibihakkasy/dental-clinic-marketing"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/publish"
)

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	engine *dentmark.Engine
}

// --- Request/response types ---

type planRequest struct {
	Selected []dentmark.Selection `json:"selected"`
}

type regenerateRequest struct {
	ArticleLink string `json:"article_link"`
	TopicID     string `json:"topic_id"`
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	Force  bool   `json:"force_regenerate"`
	// ArticleLink is accepted for parity with the frontend payload; the
	// image cache is keyed by prompt alone.
	ArticleLink string `json:"article_link"`
}

type instagramRequest struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("dentmark-web: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}

// --- Handlers ---

func (h *handlers) handleBots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]string{{
		"name": "Social Media Planner",
		"role": "Creates Instagram content plan from latest dental news.",
	}})
}

func (h *handlers) handleArticles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.FetchArticles(r.Context()))
}

func (h *handlers) handleArticlesGrouped(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.FetchGrouped(r.Context()))
}

func (h *handlers) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeBody(w, r, &req) {
		return
	}

	plan, err := h.engine.GeneratePlan(r.Context(), req.Selected)
	if err != nil {
		if errors.Is(err, dentmark.ErrNoSelection) {
			writeError(w, http.StatusBadRequest, "No articles selected")
			return
		}
		log.Printf("dentmark-web: generate plan: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate social plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *handlers) handleRegenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var summary string
	var err error
	switch {
	case req.TopicID != "":
		summary, err = h.engine.RegenerateTopicSummary(r.Context(), req.TopicID)
	case req.ArticleLink != "":
		summary, err = h.engine.RegenerateSummary(r.Context(), req.ArticleLink)
	default:
		writeError(w, http.StatusBadRequest, "Article link or topic id is required")
		return
	}
	if err != nil {
		h.regenerateError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary, "cache_status": false})
}

func (h *handlers) handleRegenerateCaption(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ArticleLink == "" {
		writeError(w, http.StatusBadRequest, "Article link is required")
		return
	}

	caption, err := h.engine.RegenerateCaption(r.Context(), req.ArticleLink)
	if err != nil {
		h.regenerateError(w, "caption", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"caption": caption, "cache_status": false})
}

func (h *handlers) handleRegenerateImagePrompt(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ArticleLink == "" {
		writeError(w, http.StatusBadRequest, "Article link is required")
		return
	}

	imagePrompt, err := h.engine.RegenerateImagePrompt(r.Context(), req.ArticleLink)
	if err != nil {
		h.regenerateError(w, "image prompt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image_prompt": imagePrompt})
}

func (h *handlers) regenerateError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, dentmark.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Article not found in cache")
		return
	}
	log.Printf("dentmark-web: regenerate %s: %v", what, err)
	writeError(w, http.StatusInternalServerError, "Error regenerating "+what)
}

func (h *handlers) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	// Reject anything that could escape the documents dir.
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	path := filepath.Join(h.engine.DocumentsDir(), filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	http.ServeFile(w, r, path)
}

func (h *handlers) handleTopicGenerate(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "Topic is required")
		return
	}

	id := h.engine.SubmitTopic(req.Topic)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"generation_id": id,
		"status":        dentmark.JobSearching,
	})
}

func (h *handlers) handleTopicStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.TopicStatus(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, dentmark.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Generation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to read generation status")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) handleTopicList(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	offset := parseIntParam(r, "offset", 0)

	topics, err := h.engine.ListTopics(limit, offset)
	if err != nil {
		log.Printf("dentmark-web: list topics: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list topics")
		return
	}
	if topics == nil {
		topics = []dentmark.TopicPreview{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (h *handlers) handleTopicGet(w http.ResponseWriter, r *http.Request) {
	topic, err := h.engine.GetTopic(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, dentmark.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Topic not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load topic")
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *handlers) handleTopicDelete(w http.ResponseWriter, r *http.Request) {
	existed, err := h.engine.DeleteTopic(r.PathValue("id"))
	if err != nil {
		log.Printf("dentmark-web: delete topic: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete topic")
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "Topic not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	result, err := h.engine.GenerateImage(r.Context(), req.Prompt, req.Force)
	if err != nil {
		log.Printf("dentmark-web: generate image: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate image")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) handleCheckCachedImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.CheckCachedImage(req.Prompt))
}

func (h *handlers) handlePostToInstagram(w http.ResponseWriter, r *http.Request) {
	var req instagramRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Caption) == "" {
		writeError(w, http.StatusBadRequest, "Caption is required")
		return
	}

	result, err := h.engine.PublishPost(r.Context(), req.Caption, req.ImageURL)
	if err != nil {
		var igErr *publish.InstagramError
		if errors.As(err, &igErr) {
			log.Printf("dentmark-web: %v", igErr)
			writeError(w, http.StatusBadGateway, "Failed to post to Instagram")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to post to Instagram")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"post_id": result.PostID,
	})
}
