// Package hints defines hint artifacts and their durable storage: the
// append-only archive and the atomically replaced current-hint slot.
package hints

import (
	"strings"
	"time"
)

// ArtifactStatus tracks the lifecycle of a hint artifact. An artifact moves
// from Pending to exactly one of Ready or Failed.
type ArtifactStatus string

const (
	StatusPending ArtifactStatus = "pending"
	StatusReady   ArtifactStatus = "ready"
	StatusFailed  ArtifactStatus = "failed"
)

// GameContext captures the identity of the running game at request time.
// It is refetched for every request and never cached across requests.
type GameContext struct {
	System     string    `json:"system"`
	Game       string    `json:"game"`
	Core       string    `json:"core"`
	CapturedAt time.Time `json:"captured_at"`
}

// Artifact is one generated hint. ID is the request timestamp.
type Artifact struct {
	ID        string         `json:"id"`
	Game      GameContext    `json:"game_context"`
	Text      string         `json:"text"`
	ImagePath string         `json:"image_path,omitempty"`
	TextPath  string         `json:"text_path,omitempty"`
	Status    ArtifactStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewArtifact creates a pending artifact stamped with the given instant.
func NewArtifact(game GameContext, now time.Time) *Artifact {
	return &Artifact{
		ID:        now.Format("20060102_150405"),
		Game:      game,
		Status:    StatusPending,
		CreatedAt: now,
	}
}

// SafeName converts a system or game name into a filesystem-safe directory
// component, capped at 50 characters.
func SafeName(name string) string {
	const unsafe = `<>:"/\|?*`
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if strings.ContainsRune(unsafe, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	result := b.String()
	if result == "" {
		result = "unknown"
	}
	if runes := []rune(result); len(runes) > 50 {
		result = string(runes[:50])
	}
	return result
}
