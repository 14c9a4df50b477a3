package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database and initializes the
// articles and topics tables. The cache table is left for CacheSet.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// TopicID derives the storage key for a topic string. The text is
// lower-cased first so "Teeth Whitening" and "teeth whitening" share a row.
func TopicID(topic string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(topic))))
	return hex.EncodeToString(h[:16])
}

// GetArticle returns the cached article for a link, or nil when absent.
// Storage faults are logged and treated as a miss; a read must never take
// the pipeline down.
func (s *SQLiteStore) GetArticle(link string) *CachedArticle {
	var a CachedArticle
	var summary, caption, imagePrompt sql.NullString
	err := s.db.QueryRow(
		`SELECT id, title, link, summary, caption, image_prompt, created_at, updated_at
		 FROM articles WHERE link = ?`, link,
	).Scan(&a.ID, &a.Title, &a.Link, &summary, &caption, &imagePrompt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("storage: article lookup failed for %s: %v", link, err)
		}
		return nil
	}
	a.Summary = summary.String
	a.Caption = caption.String
	a.ImagePrompt = imagePrompt.String
	return &a
}

// SaveArticle upserts by link. An existing row keeps its created_at; every
// other field, including updated_at, is replaced.
func (s *SQLiteStore) SaveArticle(article *CachedArticle) error {
	now := time.Now().UTC()
	if existing := s.GetArticle(article.Link); existing != nil {
		_, err := s.db.Exec(
			`UPDATE articles
			 SET title = ?, summary = ?, caption = ?, image_prompt = ?, updated_at = ?
			 WHERE link = ?`,
			article.Title, article.Summary, article.Caption, article.ImagePrompt,
			now, article.Link,
		)
		if err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}
		return nil
	}

	_, err := s.db.Exec(
		`INSERT INTO articles (title, link, summary, caption, image_prompt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		article.Title, article.Link, article.Summary, article.Caption,
		article.ImagePrompt, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// SaveTopic writes a topic row, unconditionally overwriting any existing row
// with the same derived id (last write wins), and returns the id.
func (s *SQLiteStore) SaveTopic(topic *Topic) (string, error) {
	id := TopicID(topic.Topic)
	sources, err := json.Marshal(topic.Sources)
	if err != nil {
		return "", fmt.Errorf("failed to encode topic sources: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO topics (id, topic, summary, caption, image_prompt, sources, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   topic = excluded.topic,
		   summary = excluded.summary,
		   caption = excluded.caption,
		   image_prompt = excluded.image_prompt,
		   sources = excluded.sources,
		   created_at = excluded.created_at`,
		id, topic.Topic, topic.Summary, topic.Caption, topic.ImagePrompt,
		string(sources), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save topic: %w", err)
	}
	topic.ID = id
	return id, nil
}

// GetTopic returns the topic for an id, or ErrNotFound.
func (s *SQLiteStore) GetTopic(id string) (*Topic, error) {
	var t Topic
	var summary, caption, imagePrompt, sources sql.NullString
	err := s.db.QueryRow(
		`SELECT id, topic, summary, caption, image_prompt, sources, created_at
		 FROM topics WHERE id = ?`, id,
	).Scan(&t.ID, &t.Topic, &summary, &caption, &imagePrompt, &sources, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	t.Summary = summary.String
	t.Caption = caption.String
	t.ImagePrompt = imagePrompt.String
	if sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &t.Sources); err != nil {
			log.Printf("storage: bad sources payload for topic %s: %v", id, err)
		}
	}
	return &t, nil
}

// summaryPreviewLen is how much of a topic summary the list view carries.
const summaryPreviewLen = 100

// ListTopics returns topic previews, most recent first.
func (s *SQLiteStore) ListTopics(limit, offset int) ([]TopicPreview, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(
		`SELECT id, topic, summary, created_at FROM topics
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var previews []TopicPreview
	for rows.Next() {
		var p TopicPreview
		var summary sql.NullString
		if err := rows.Scan(&p.ID, &p.Topic, &summary, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		p.SummaryPreview = previewOf(summary.String)
		previews = append(previews, p)
	}
	return previews, rows.Err()
}

func previewOf(summary string) string {
	runes := []rune(summary)
	if len(runes) <= summaryPreviewLen {
		return summary
	}
	return string(runes[:summaryPreviewLen]) + "..."
}

// DeleteTopic removes a topic row, reporting whether one existed.
func (s *SQLiteStore) DeleteTopic(id string) (bool, error) {
	result, err := s.db.Exec("DELETE FROM topics WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete topic: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CacheGet returns the raw cached value for a key. Expiry is NOT checked
// here: an already-expired entry stays visible until the next CacheSet
// purges it. Lazy purge-on-write is the documented behavior, not an
// oversight. A missing cache table simply reads as a miss.
func (s *SQLiteStore) CacheGet(key string) ([]byte, bool) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM cache WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows && !strings.Contains(err.Error(), "no such table") {
			log.Printf("storage: cache lookup failed for %s: %v", key, err)
		}
		return nil, false
	}
	return value, true
}

// CacheSet writes a value with an optional TTL (ttl <= 0 means no expiry).
// The cache table is created on first use, and every write sweeps out
// entries whose expiry has passed.
func (s *SQLiteStore) CacheSet(key string, value []byte, ttl time.Duration) error {
	if _, err := s.db.Exec(cacheSchema); err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}

	var expiresAt interface{}
	if ttl > 0 {
		expiresAt = time.Now().UTC().Add(ttl)
	}

	_, err := s.db.Exec(
		`INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}

	if _, err := s.db.Exec(
		"DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at <= ?",
		time.Now().UTC(),
	); err != nil {
		log.Printf("storage: cache purge failed: %v", err)
	}
	return nil
}
