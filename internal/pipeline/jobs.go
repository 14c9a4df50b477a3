package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Gibihakkasy/dental-clinic-marketing/internal/ai"
	"github.com/Gibihakkasy/dental-clinic-marketing/internal/storage"
)

// Job states, in the order the chain moves through them.
const (
	StatusSearching             = "searching"
	StatusGeneratingCaption     = "generating_caption"
	StatusGeneratingImagePrompt = "generating_image_prompt"
	StatusCompleted             = "completed"
	StatusError                 = "error"
)

const (
	progressTTL = time.Hour
	resultTTL   = 24 * time.Hour
)

// Snapshot is the cumulative state of a topic generation job. Each stage
// adds its output; earlier fields are never cleared.
type Snapshot struct {
	GenerationID string    `json:"generation_id"`
	Status       string    `json:"status"`
	Topic        string    `json:"topic"`
	TopicID      string    `json:"topic_id,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	ImagePrompt  string    `json:"image_prompt,omitempty"`
	Sources      []string  `json:"sources,omitempty"`
	Error        string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobRunner executes topic generation jobs in the background, publishing
// progress through the store's cache so any process instance sharing the
// database can answer status polls.
type JobRunner struct {
	store storage.Store
	gen   ai.Generator
}

func NewJobRunner(store storage.Store, gen ai.Generator) *JobRunner {
	return &JobRunner{store: store, gen: gen}
}

// Submit starts a job for the topic and returns its generation id. The
// initial searching snapshot is written before returning, so a status poll
// issued immediately after never sees not-found.
func (r *JobRunner) Submit(topic string) string {
	id := uuid.New().String()
	snap := Snapshot{
		GenerationID: id,
		Status:       StatusSearching,
		Topic:        topic,
	}
	r.writeSnapshot(progressKey(id), snap, progressTTL)
	go r.run(id, topic)
	return id
}

// Status returns the latest snapshot for a job. Results outlive progress
// entries, so the durable result slot is consulted first.
func (r *JobRunner) Status(id string) (*Snapshot, error) {
	for _, key := range []string{resultKey(id), progressKey(id)} {
		raw, ok := r.store.CacheGet(key)
		if !ok {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			log.Printf("pipeline: corrupt job snapshot at %s: %v", key, err)
			continue
		}
		return &snap, nil
	}
	return nil, storage.ErrNotFound
}

func (r *JobRunner) run(id, topic string) {
	snap := Snapshot{
		GenerationID: id,
		Status:       StatusSearching,
		Topic:        topic,
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("pipeline: topic job %s panicked: %v", id, rec)
			r.fail(id, snap, fmt.Sprintf("internal error during generation: %v", rec))
		}
	}()

	ctx := context.Background()

	// The summary step doubles as research; the topic stands in for both
	// the title and the URL so the model searches the open web.
	summary := r.gen.Summary(ctx, topic, topic)
	snap.Summary = summary
	snap.Sources = extractSources(summary)
	snap.Status = StatusGeneratingCaption
	r.writeSnapshot(progressKey(id), snap, progressTTL)

	caption := r.gen.Caption(ctx, summary)
	snap.Caption = caption
	snap.Status = StatusGeneratingImagePrompt
	r.writeSnapshot(progressKey(id), snap, progressTTL)

	imagePrompt := r.gen.ImagePrompt(ctx, summary)
	snap.ImagePrompt = imagePrompt

	record := &storage.Topic{
		Topic:       topic,
		Summary:     summary,
		Caption:     caption,
		ImagePrompt: imagePrompt,
		Sources:     snap.Sources,
	}
	topicID, err := r.store.SaveTopic(record)
	if err != nil {
		log.Printf("pipeline: failed to save topic %q: %v", topic, err)
		r.fail(id, snap, fmt.Sprintf("failed to save generated topic: %v", err))
		return
	}

	snap.TopicID = topicID
	snap.Status = StatusCompleted
	r.writeSnapshot(progressKey(id), snap, progressTTL)
	r.writeSnapshot(resultKey(id), snap, resultTTL)
}

func (r *JobRunner) fail(id string, snap Snapshot, msg string) {
	snap.Status = StatusError
	snap.Error = msg
	r.writeSnapshot(progressKey(id), snap, progressTTL)
	r.writeSnapshot(resultKey(id), snap, resultTTL)
}

func (r *JobRunner) writeSnapshot(key string, snap Snapshot, ttl time.Duration) {
	snap.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(snap)
	if err != nil {
		log.Printf("pipeline: failed to marshal job snapshot: %v", err)
		return
	}
	if err := r.store.CacheSet(key, raw, ttl); err != nil {
		log.Printf("pipeline: failed to write job snapshot %s: %v", key, err)
	}
}

func progressKey(id string) string { return "progress_" + id }
func resultKey(id string) string   { return "result_" + id }

// extractSources pulls http(s) URLs out of generated text, deduplicated in
// first-seen order with trailing punctuation trimmed.
func extractSources(text string) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, field := range strings.Fields(text) {
		field = strings.Trim(field, "()[]<>")
		if !strings.HasPrefix(field, "http://") && !strings.HasPrefix(field, "https://") {
			continue
		}
		field = strings.TrimRight(field, ".,;:!?")
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		sources = append(sources, field)
	}
	return sources
}
