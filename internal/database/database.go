// Package database is the sqlite persistence layer for subscriptions,
// notification records, observed prices and persisted metrics.
package database

import (
	"database/sql"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// Store wraps the sqlite handle. Subscription and notification writes happen
// from both the evaluation cycle and the command handlers, so each aggregate
// gets its own mutex to serialize multi-step write transactions.
type Store struct {
	db      *sql.DB
	subsMu  sync.Mutex
	notifMu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL,
	asset TEXT NOT NULL,
	threshold REAL NOT NULL,
	direction TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	UNIQUE(chat_id, asset, direction)
);

CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL,
	observed_price REAL NOT NULL,
	threshold REAL NOT NULL,
	sent_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_lookup
	ON notifications (chat_id, asset, sent_at);

CREATE TABLE IF NOT EXISTS price_log (
	asset TEXT NOT NULL,
	price REAL NOT NULL,
	observed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_log_lookup
	ON price_log (asset, observed_at);

CREATE TABLE IF NOT EXISTS metrics (
	metric_name TEXT NOT NULL,
	label_key TEXT DEFAULT NULL,
	label_value TEXT DEFAULT NULL,
	metric_value REAL NOT NULL,
	PRIMARY KEY (metric_name, label_key, label_value)
);`

// Open connects to the sqlite database at dbPath and creates the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// sqlite allows a single writer; one pooled connection also keeps
	// ":memory:" databases from silently splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}

	log.Debugf("database initialized at %s", dbPath)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
