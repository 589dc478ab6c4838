// Package trigger merges controller chords and filesystem markers into one
// ordered stream of hint trigger events.
package trigger

import (
	"log/slog"
	"sync"
	"time"

	"hinter/internal/config"
	"hinter/internal/logging"
)

// Kind identifies what a trigger asks for.
type Kind int

const (
	// KindRequest asks for a new hint to be generated.
	KindRequest Kind = iota
	// KindView asks for the current hint to be shown.
	KindView
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindView:
		return "view"
	}
	return "unknown"
}

// Origin identifies which producer emitted a trigger.
type Origin string

const (
	// OriginInput marks triggers from the controller chord detector.
	OriginInput Origin = "input"
	// OriginMarker marks triggers from the sentinel file watcher.
	OriginMarker Origin = "marker"
)

// Event is a single consumed-once trigger.
type Event struct {
	Kind   Kind
	Origin Origin
	At     time.Time
}

// Source fans producer triggers into one channel, coalescing duplicate
// same-kind triggers that arrive within the debounce window.
type Source struct {
	events   chan Event
	debounce time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	last map[Kind]time.Time
}

// SourceOption adjusts source construction.
type SourceOption func(*Source)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) { s.now = now }
}

// NewSource constructs the fan-in point for all trigger producers.
func NewSource(cfg *config.Config, logger *slog.Logger, opts ...SourceOption) *Source {
	s := &Source{
		events:   make(chan Event, 8),
		debounce: time.Duration(cfg.Input.DebounceMillis) * time.Millisecond,
		now:      time.Now,
		logger:   logging.NewComponentLogger(logger, "trigger"),
		last:     make(map[Kind]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the merged trigger stream.
func (s *Source) Events() <-chan Event {
	return s.events
}

// Dispatch offers a trigger to the stream. It reports whether the trigger
// was emitted; duplicates inside the debounce window and triggers arriving
// while the buffer is full are dropped.
func (s *Source) Dispatch(kind Kind, origin Origin) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.last[kind]; ok && now.Sub(last) < s.debounce {
		s.logger.Debug("trigger debounced",
			logging.String(logging.FieldTrigger, kind.String()),
			logging.String("origin", string(origin)),
		)
		return false
	}

	// The debounce timestamp is recorded only for emitted triggers; a
	// buffer-full drop must not suppress an immediate retry.
	select {
	case s.events <- Event{Kind: kind, Origin: origin, At: now}:
		s.last[kind] = now
		s.logger.Info("trigger dispatched",
			logging.String(logging.FieldTrigger, kind.String()),
			logging.String("origin", string(origin)),
		)
		return true
	default:
		s.logger.Warn("trigger dropped, event buffer full",
			logging.String(logging.FieldTrigger, kind.String()),
		)
		return false
	}
}
