// Package provider calls the external hint generator APIs.
//
// Exactly one attempt is made per request. A failed call never retries and
// the quota consumed for it is not refunded; the player simply sees "hint
// failed" and may try again.
package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"hinter/internal/config"
)

// Request carries everything the generator needs for one hint.
type Request struct {
	ScreenshotPath string
	System         string
	Game           string
}

// Provider generates a hint for a captured game moment.
type Provider interface {
	// Name identifies the backing API for logging.
	Name() string
	// Generate performs the single API attempt and returns the hint text.
	Generate(ctx context.Context, req Request) (string, error)
}

// New constructs the configured provider implementation.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.Provider.Name {
	case "anthropic":
		return newAnthropic(cfg), nil
	case "openai":
		return newOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

// buildPrompt substitutes the game identity into the prompt template.
func buildPrompt(template, system, game string) string {
	prompt := strings.ReplaceAll(template, "{system}", system)
	return strings.ReplaceAll(prompt, "{game}", game)
}

// encodeScreenshot reads the screenshot and returns its base64 payload.
func encodeScreenshot(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
