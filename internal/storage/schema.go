package storage

const schema = `
-- The 'kv' table holds opaque values under string keys. The card deck lives under one key.
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);

-- The 'review_logs' table keeps one row per answer given in a review session.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    reviewed_at DATETIME NOT NULL,
    correct INTEGER NOT NULL,
    from_box INTEGER NOT NULL,
    to_box INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_logs_card ON review_logs(card_id);
`
