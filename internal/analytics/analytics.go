// Package analytics keeps an append-only event log of every handled
// message in sqlite, plus daily rollups for the stats command.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one handled inbound message and what it did to the funnel.
// CycleID ties the event back to a single engine cycle in the logs.
type Event struct {
	CycleID     string
	Timestamp   time.Time
	FanID       string
	Channel     string
	Intent      string
	PhaseFrom   string
	PhaseTo     string
	Rule        string
	MessagesOut int
	Fallback    bool
	LatencyMs   int64
}

type Logger struct {
	db *sql.DB
	mu sync.Mutex
}

func NewLogger(dbPath string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	l := &Logger{db: db}
	if err := l.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := l.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Logger) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := l.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (l *Logger) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT NOT NULL DEFAULT '',
			ts TEXT NOT NULL,
			fan_id TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT '',
			intent TEXT NOT NULL DEFAULT '',
			phase_from TEXT NOT NULL DEFAULT '',
			phase_to TEXT NOT NULL DEFAULT '',
			rule TEXT NOT NULL DEFAULT '',
			messages_out INTEGER NOT NULL DEFAULT 0,
			fallback INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_events_fan ON events(fan_id, ts)`,
		`CREATE TABLE IF NOT EXISTS daily_rollups (
			day TEXT PRIMARY KEY,
			events INTEGER NOT NULL DEFAULT 0,
			fans INTEGER NOT NULL DEFAULT 0,
			pitches INTEGER NOT NULL DEFAULT 0,
			subscriptions INTEGER NOT NULL DEFAULT 0,
			fallbacks INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return fmt.Errorf("init analytics schema: %w", err)
		}
	}
	return nil
}

func (l *Logger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// LogEvent appends one event.
func (l *Logger) LogEvent(ctx context.Context, ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (cycle_id, ts, fan_id, channel, intent, phase_from, phase_to, rule, messages_out, fallback, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.CycleID, ts.UTC().Format(time.RFC3339), ev.FanID, ev.Channel, ev.Intent,
		ev.PhaseFrom, ev.PhaseTo, ev.Rule, ev.MessagesOut, boolInt(ev.Fallback), ev.LatencyMs)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// Stats summarizes the whole event log.
type Stats struct {
	TotalEvents   int
	UniqueFans    int
	Pitches       int
	Subscriptions int
	Fallbacks     int
	ByIntent      map[string]int
}

func (l *Logger) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByIntent: map[string]int{}}
	row := l.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(DISTINCT fan_id),
		COALESCE(SUM(CASE WHEN phase_to = 'of_pitch' AND phase_from != 'of_pitch' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN rule = 'subscribed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(fallback), 0)
		FROM events`)
	if err := row.Scan(&st.TotalEvents, &st.UniqueFans, &st.Pitches, &st.Subscriptions, &st.Fallbacks); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `SELECT intent, COUNT(*) FROM events WHERE intent != '' GROUP BY intent`)
	if err != nil {
		return nil, fmt.Errorf("query intents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var intent string
		var n int
		if err := rows.Scan(&intent, &n); err != nil {
			return nil, fmt.Errorf("scan intent row: %w", err)
		}
		st.ByIntent[intent] = n
	}
	return st, rows.Err()
}

// Rollup aggregates one day's events into daily_rollups. Running it
// again for the same day overwrites the previous rollup.
func (l *Logger) Rollup(ctx context.Context, day time.Time) error {
	d := day.UTC().Format("2006-01-02")
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO daily_rollups (day, events, fans, pitches, subscriptions, fallbacks)
		SELECT ?,
			COUNT(*),
			COUNT(DISTINCT fan_id),
			COALESCE(SUM(CASE WHEN phase_to = 'of_pitch' AND phase_from != 'of_pitch' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rule = 'subscribed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(fallback), 0)
		FROM events WHERE substr(ts, 1, 10) = ?
		ON CONFLICT(day) DO UPDATE SET
			events = excluded.events,
			fans = excluded.fans,
			pitches = excluded.pitches,
			subscriptions = excluded.subscriptions,
			fallbacks = excluded.fallbacks`,
		d, d)
	if err != nil {
		return fmt.Errorf("rollup %s: %w", d, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
