package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded marks a request rejected by the daily quota. Resolves
	// on the next calendar day.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	// ErrNoActiveGame marks a request made while no content is loaded.
	ErrNoActiveGame = errors.New("no active game")
	// ErrScreenshotTimeout marks a screenshot that never appeared within the
	// configured wait window.
	ErrScreenshotTimeout = errors.New("screenshot timeout")
	// ErrControlPortUnreachable marks a failed exchange with the emulator
	// command interface.
	ErrControlPortUnreachable = errors.New("control port unreachable")
	// ErrProviderFailure marks a hint generator API failure of any kind.
	ErrProviderFailure = errors.New("provider failure")
	// ErrBusy marks a request rejected because a hint is already being
	// generated. Single-flight: never queued.
	ErrBusy = errors.New("hint generation in progress")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProviderFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserFacing reports whether the failure should be surfaced with a specific
// message rather than the generic "hint failed" notification.
func UserFacing(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrNoActiveGame) ||
		errors.Is(err, ErrBusy)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
