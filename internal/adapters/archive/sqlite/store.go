package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	handle      TEXT PRIMARY KEY,
	endpoint    TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL DEFAULT '',
	ended_at    TEXT NOT NULL DEFAULT '',
	final_state TEXT NOT NULL DEFAULT '',
	final_error TEXT NOT NULL DEFAULT '',
	end_seq     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS turns (
	handle     TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	agent_id   INTEGER NOT NULL,
	turn_index INTEGER NOT NULL,
	failed     INTEGER NOT NULL DEFAULT 0,
	payload    TEXT NOT NULL,
	PRIMARY KEY (handle, seq),
	FOREIGN KEY (handle) REFERENCES sessions(handle)
);

CREATE INDEX IF NOT EXISTS turns_by_agent ON turns (handle, agent_id, turn_index);
`

const timeLayout = time.RFC3339Nano

// Store archives streamed sessions in a SQLite database. Every write is an upsert keyed
// by session handle and turn sequence, so writes may arrive in any order.
type Store struct {
	db *sql.DB
}

var _ ports.TurnArchive = (*Store)(nil)

func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// One connection keeps concurrent handler writes from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) BeginSession(ctx context.Context, handle domain.HandleID, endpoint string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (handle, endpoint, started_at) VALUES (?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET endpoint = excluded.endpoint, started_at = excluded.started_at`,
		string(handle), endpoint, formatTime(at))
	if err != nil {
		return fmt.Errorf("insert session %s: %w", handle.Short(), err)
	}
	return nil
}

func (s *Store) RecordTurn(ctx context.Context, handle domain.HandleID, seq int, turn domain.TurnRecord) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sessions (handle) VALUES (?)`, string(handle)); err != nil {
		return fmt.Errorf("ensure session %s: %w", handle.Short(), err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO turns (handle, seq, agent_id, turn_index, failed, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(handle), seq, turn.AgentID, turn.TurnIndex, boolToInt(turn.Failed()), string(payload))
	if err != nil {
		return fmt.Errorf("insert turn %d: %w", seq, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turn %d: %w", seq, err)
	}
	return nil
}

// EndSession records how a session finished. seq orders the controller's notifications;
// the terminal status with the lowest seq wins, so a Stop after a stream error keeps the
// error no matter which write lands first.
func (s *Store) EndSession(ctx context.Context, handle domain.HandleID, seq uint64, status domain.SessionStatus, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (handle, ended_at, final_state, final_error, end_seq) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET
			ended_at = excluded.ended_at,
			final_state = excluded.final_state,
			final_error = excluded.final_error,
			end_seq = excluded.end_seq
		WHERE sessions.end_seq = 0 OR excluded.end_seq < sessions.end_seq`,
		string(handle), formatTime(at), string(status.State), status.Err, int64(seq))
	if err != nil {
		return fmt.Errorf("end session %s: %w", handle.Short(), err)
	}
	return nil
}

// ListSessions returns archived sessions, most recently started first.
func (s *Store) ListSessions(ctx context.Context) ([]domain.ArchivedSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.handle, s.endpoint, s.started_at, s.ended_at, s.final_state, s.final_error, COUNT(t.seq)
		FROM sessions s
		LEFT JOIN turns t ON t.handle = s.handle
		GROUP BY s.handle
		ORDER BY s.started_at DESC, s.handle`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ArchivedSession
	for rows.Next() {
		var (
			session            domain.ArchivedSession
			handle, finalState string
			startedAt, endedAt string
		)
		if err := rows.Scan(&handle, &session.Endpoint, &startedAt, &endedAt, &finalState, &session.FinalError, &session.TurnCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		session.Handle = domain.HandleID(handle)
		session.FinalState = domain.SessionState(finalState)
		if session.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("session %s started_at: %w", session.Handle.Short(), err)
		}
		if session.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, fmt.Errorf("session %s ended_at: %w", session.Handle.Short(), err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// LoadTurns returns the turns of one session in arrival order.
func (s *Store) LoadTurns(ctx context.Context, handle domain.HandleID) ([]domain.TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, payload FROM turns WHERE handle = ? ORDER BY seq`, string(handle))
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.TurnRecord
	for rows.Next() {
		var (
			seq     int
			payload string
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}

		var turn domain.TurnRecord
		if err := json.Unmarshal([]byte(payload), &turn); err != nil {
			return nil, fmt.Errorf("decode turn %d: %w", seq, err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
