package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const eventSchema = `
CREATE TABLE IF NOT EXISTS game_event (
	event_id   TEXT NOT NULL,
	match_id   TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (match_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_game_event_kind ON game_event (match_id, kind);
`

type eventRow struct {
	EventID   string    `db:"event_id"`
	MatchID   string    `db:"match_id"`
	Seq       uint64    `db:"seq"`
	Kind      string    `db:"kind"`
	CreatedAt time.Time `db:"created_at"`
	Payload   string    `db:"payload"`
}

// SQLStore persists envelopes to sqlite. Envelopes are stored whole as
// JSON; visibility filtering always happens on read through View.
type SQLStore struct {
	db *sqlx.DB
}

// OpenStore opens (and migrates) the event database at dsn.
func OpenStore(dsn string) (*SQLStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	if _, err := db.Exec(eventSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event store: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Append implements Store.
func (s *SQLStore) Append(env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO game_event (event_id, match_id, seq, kind, created_at, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		env.ID.String(), env.MatchID, env.Seq, env.Kind, env.Time, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Load returns all persisted envelopes for a match in sequence order.
// Used to rebuild a match log after a restart.
func (s *SQLStore) Load(matchID string) ([]Envelope, error) {
	var rows []eventRow
	err := s.db.Select(&rows,
		`SELECT event_id, match_id, seq, kind, created_at, payload FROM game_event WHERE match_id = ? ORDER BY seq`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	out := make([]Envelope, 0, len(rows))
	for _, row := range rows {
		var env Envelope
		if err := json.Unmarshal([]byte(row.Payload), &env); err != nil {
			return nil, fmt.Errorf("decode event seq %d: %w", row.Seq, err)
		}
		out = append(out, env)
	}
	return out, nil
}

// PruneBefore deletes persisted events older than the cutoff. Called by the
// retention sweep for finished matches.
func (s *SQLStore) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM game_event WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
