package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned by topic lookups when no row exists for the id.
var ErrNotFound = errors.New("not found")

// CachedArticle is a fully-generated article row. A row exists only if every
// generation step succeeded; partial results are never persisted.
type CachedArticle struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	Caption     string    `json:"caption"`
	ImagePrompt string    `json:"image_prompt"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Topic is generated content for a free-text topic, keyed by a hash of the
// lower-cased topic text so case variants collide onto one row.
type Topic struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Summary     string    `json:"summary"`
	Caption     string    `json:"caption"`
	ImagePrompt string    `json:"image_prompt"`
	Sources     []string  `json:"sources"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopicPreview is the list-view projection of a Topic.
type TopicPreview struct {
	ID             string    `json:"id"`
	Topic          string    `json:"topic"`
	SummaryPreview string    `json:"summary_preview"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the persistence boundary. All durable state lives behind it; no
// other component touches the database directly.
//
// Read operations degrade to "absent" on storage faults so cache misses stay
// cheap; write operations propagate errors and let the caller decide.
type Store interface {
	Close() error

	// Articles
	GetArticle(link string) *CachedArticle
	SaveArticle(article *CachedArticle) error

	// Topics
	SaveTopic(topic *Topic) (string, error)
	GetTopic(id string) (*Topic, error)
	ListTopics(limit, offset int) ([]TopicPreview, error)
	DeleteTopic(id string) (bool, error)

	// Generic expiring blob cache
	CacheGet(key string) ([]byte, bool)
	CacheSet(key string, value []byte, ttl time.Duration) error
}
