package transport

// The store is the transport's local copy of every conversation. It is
// SQLite backed; ":memory:" gives a private in-memory database.

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/magic8ball-go/internal/logger"
)

// ErrStoreKeyMismatch is returned when a store is opened with a different
// database key than the one it was created with.
var ErrStoreKeyMismatch = errors.New("message store was created with a different database key")

// Store persists messages per conversation in arrival order.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and creates if needed) the store at path. dbKey, when
// non-empty, is checked against the key recorded at creation.
func OpenStore(path, dbKey string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open message store: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if dbKey != "" {
		if err := s.checkKey(dbKey); err != nil {
			db.Close()
			return nil, err
		}
	}
	logger.L.Debug("message store opened", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			content TEXT NOT NULL,
			content_type TEXT NOT NULL,
			sent_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS messages_conversation ON messages (conversation_id, seq);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate message store: %w", err)
		}
	}
	return nil
}

func (s *Store) checkKey(dbKey string) error {
	sum := sha256.Sum256([]byte(dbKey))
	fingerprint := hex.EncodeToString(sum[:])

	var stored string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'db_key';`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.Exec(`INSERT INTO meta (key, value) VALUES ('db_key', ?);`, fingerprint)
		return err
	case err != nil:
		return fmt.Errorf("read store key: %w", err)
	case stored != fingerprint:
		return ErrStoreKeyMismatch
	}
	return nil
}

// Append stores msg. Re-delivered messages (same ID) are ignored.
func (s *Store) Append(ctx context.Context, msg Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO messages (id, conversation_id, sender_id, content, content_type, sent_at) VALUES (?,?,?,?,?,?);`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.ContentType, msg.SentAt.UnixNano())
	if err != nil {
		return fmt.Errorf("store message %s: %w", msg.ID, err)
	}
	return nil
}

// History returns the messages of a conversation in chronological order.
func (s *Store) History(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, content, content_type, sent_at FROM messages WHERE conversation_id = ? ORDER BY seq ASC;`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var sentAt int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.ContentType, &sentAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		m.SentAt = time.Unix(0, sentAt).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// HasConversation reports whether any message is stored for the conversation.
func (s *Store) HasConversation(ctx context.Context, conversationID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM messages WHERE conversation_id = ?;`, conversationID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup conversation: %w", err)
	}
	return n > 0, nil
}

// Clear drops the local history of a conversation. The remote record is untouched.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?;`, conversationID)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
