package usagelog

import (
	"context"
	"fmt"
	"time"
)

// Event kinds recorded by the daemon.
const (
	EventHintGenerated = "hint_generated"
	EventHintViewed    = "hint_viewed"
	EventRateLimited   = "rate_limited"
	EventAPIError      = "api_error"
)

// Event is one row of hint activity.
type Event struct {
	ID         int64
	CreatedAt  time.Time
	Kind       string
	SessionID  string
	System     string
	Game       string
	Core       string
	Success    bool
	ResponseMS int64
	Detail     string
}

const timeLayout = time.RFC3339Nano

// Record appends an event. CreatedAt defaults to now when unset.
func (s *Store) Record(ctx context.Context, event Event) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	success := 0
	if event.Success {
		success = 1
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO events (created_at, kind, session_id, system, game, core, success, response_ms, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt.UTC().Format(timeLayout),
		event.Kind,
		event.SessionID,
		event.System,
		event.Game,
		event.Core,
		success,
		event.ResponseMS,
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("record usage event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, kind, session_id, system, game, core, success, response_ms, detail
		 FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			createdAt string
			success   int
		)
		if err := rows.Scan(&event.ID, &createdAt, &event.Kind, &event.SessionID,
			&event.System, &event.Game, &event.Core, &success, &event.ResponseMS, &event.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ts, parseErr := time.Parse(timeLayout, createdAt); parseErr == nil {
			event.CreatedAt = ts
		}
		event.Success = success == 1
		events = append(events, event)
	}
	return events, rows.Err()
}

// KindCounts returns event totals per kind since the given instant.
func (s *Store) KindCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(1) FROM events WHERE created_at >= ? GROUP BY kind`,
		since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query kind counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

// GameTotals returns per-game generated-hint counts, most requested first.
func (s *Store) GameTotals(ctx context.Context, limit int) ([]GameTotal, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT system, game, COUNT(1) AS total
		 FROM events WHERE kind = ? AND game != ''
		 GROUP BY system, game ORDER BY total DESC LIMIT ?`,
		EventHintGenerated, limit)
	if err != nil {
		return nil, fmt.Errorf("query game totals: %w", err)
	}
	defer rows.Close()

	var totals []GameTotal
	for rows.Next() {
		var total GameTotal
		if err := rows.Scan(&total.System, &total.Game, &total.Hints); err != nil {
			return nil, fmt.Errorf("scan game total: %w", err)
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

// GameTotal is a per-game hint count for reporting.
type GameTotal struct {
	System string
	Game   string
	Hints  int
}
