package storage

// Schema covers the articles and topics tables. The generic cache table is
// deliberately absent: it is created lazily on first write, so a database
// that never caches blobs never carries the table.
const Schema = `
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    link TEXT NOT NULL UNIQUE,
    summary TEXT,
    caption TEXT,
    image_prompt TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_articles_link ON articles(link);

CREATE TABLE IF NOT EXISTS topics (
    id TEXT PRIMARY KEY,
    topic TEXT NOT NULL,
    summary TEXT,
    caption TEXT,
    image_prompt TEXT,
    sources TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_topics_created ON topics(created_at DESC);
`

// cacheSchema backs the generic expiring blob cache (job progress, image
// memoization). Executed by CacheSet, never at startup.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    expires_at DATETIME
);
`
