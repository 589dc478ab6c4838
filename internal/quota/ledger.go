// Package quota enforces the persisted daily hint limit.
package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const historyDays = 30

// DayCount records one finished day in the ledger history.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type ledgerState struct {
	Day     string     `json:"day"`
	Count   int        `json:"count"`
	History []DayCount `json:"history,omitempty"`
}

// Stats is a read-only snapshot of quota usage.
type Stats struct {
	Day       string
	Used      int
	Limit     int
	Remaining int
	History   []DayCount
}

// ExceededError reports a consume attempt past the daily limit. It carries the
// current counters for user messaging.
type ExceededError struct {
	Used  int
	Limit int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily limit reached (%d/%d)", e.Used, e.Limit)
}

// Ledger is a persisted daily counter. The coordinator permits only one
// in-flight request pipeline; the mutex exists for status readers that
// snapshot usage while the daemon runs.
type Ledger struct {
	path  string
	limit int

	mu    sync.Mutex
	state ledgerState
}

// Open loads the ledger file, tolerating a missing or corrupt file by
// starting fresh. limit <= 0 disables the quota check.
func Open(path string, limit int) (*Ledger, error) {
	l := &Ledger{path: path, limit: limit}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read quota ledger: %w", err)
	}
	if err := json.Unmarshal(data, &l.state); err != nil {
		// A half-written ledger should never happen thanks to atomic
		// replace, but a corrupt one must not wedge the daemon.
		l.state = ledgerState{}
	}
	return l, nil
}

// TryConsume reserves one request for the given instant. When the stored day
// differs from now's calendar day the counter resets first. On success the
// incremented state is persisted durably before returning. On quota failure
// the state is left untouched and an *ExceededError is returned.
func (l *Ledger) TryConsume(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay(now)

	if l.limit > 0 && l.state.Count >= l.limit {
		return &ExceededError{Used: l.state.Count, Limit: l.limit}
	}

	l.state.Count++
	if err := l.persist(); err != nil {
		l.state.Count--
		return err
	}
	return nil
}

// Stats returns the usage snapshot for the given instant, rolling the day
// first so stale counts never leak into display.
func (l *Ledger) Stats(now time.Time) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay(now)
	remaining := -1
	if l.limit > 0 {
		remaining = l.limit - l.state.Count
		if remaining < 0 {
			remaining = 0
		}
	}
	history := make([]DayCount, len(l.state.History))
	copy(history, l.state.History)
	return Stats{
		Day:       l.state.Day,
		Used:      l.state.Count,
		Limit:     l.limit,
		Remaining: remaining,
		History:   history,
	}
}

func (l *Ledger) rollDay(now time.Time) {
	today := now.Format("2006-01-02")
	if l.state.Day == today {
		return
	}
	if l.state.Day != "" && l.state.Count > 0 {
		l.state.History = append(l.state.History, DayCount{Day: l.state.Day, Count: l.state.Count})
		if len(l.state.History) > historyDays {
			l.state.History = l.state.History[len(l.state.History)-historyDays:]
		}
	}
	l.state.Day = today
	l.state.Count = 0
}

// persist writes the ledger via temp-file-then-rename so a concurrent reader
// never observes a partial ledger.
func (l *Ledger) persist() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quota ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".usage_counter-*")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace quota ledger: %w", err)
	}
	return nil
}
