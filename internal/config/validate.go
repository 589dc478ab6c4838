package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownBackends = map[string]struct{}{
	"fbv":       {},
	"mpv":       {},
	"fbi":       {},
	"feh":       {},
	"retroarch": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRetroArch(); err != nil {
		return err
	}
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateHints(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRetroArch() error {
	if c.RetroArch.Port <= 0 || c.RetroArch.Port > 65535 {
		return errors.New("retroarch.port must be between 1 and 65535")
	}
	if c.RetroArch.SavestateSlot < 0 || c.RetroArch.SavestateSlot > 999 {
		return errors.New("retroarch.savestate_slot must be between 0 and 999")
	}
	if err := ensurePositiveMap(map[string]int{
		"retroarch.command_timeout":         c.RetroArch.CommandTimeout,
		"retroarch.screenshot_wait_seconds": c.RetroArch.ScreenshotWaitSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateInput() error {
	if len(c.Input.RequestChord) == 0 {
		return errors.New("input.request_chord must include at least one button")
	}
	if len(c.Input.ViewChord) == 0 {
		return errors.New("input.view_chord must include at least one button")
	}
	if chordsOverlapExactly(c.Input.RequestChord, c.Input.ViewChord) {
		return errors.New("input.request_chord and input.view_chord must differ")
	}
	if c.Input.MarkerPollMillis <= 0 {
		return errors.New("input.marker_poll_ms must be positive")
	}
	return nil
}

func chordsOverlapExactly(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, btn := range a {
		set[btn] = struct{}{}
	}
	for _, btn := range b {
		if _, ok := set[btn]; !ok {
			return false
		}
	}
	return true
}

func (c *Config) validateDisplay() error {
	for _, backend := range c.Display.Backends {
		if _, ok := knownBackends[backend]; !ok {
			return fmt.Errorf("display.backends: unknown backend %q", backend)
		}
	}
	return nil
}

func (c *Config) validateProvider() error {
	switch c.Provider.Name {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("provider.name must be %q or %q", "anthropic", "openai")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/hinter/config.toml"
		}
		envVar := "ANTHROPIC_API_KEY"
		if c.Provider.Name == "openai" {
			envVar = "OPENAI_API_KEY"
		}
		return fmt.Errorf("provider.api_key is required. Set %s env var, add API_KEY to %s, or edit %s (create with 'hinter config init')", envVar, c.SecretsPath(), defaultPath)
	}
	return nil
}

func (c *Config) validateHints() error {
	if c.Hints.DailyLimit < 0 {
		return errors.New("hints.daily_limit must be >= 0 (0 disables the limit)")
	}
	if err := ensurePositiveMap(map[string]int{
		"hints.render_width":     c.Hints.RenderWidth,
		"hints.render_height":    c.Hints.RenderHeight,
		"hints.render_font_size": c.Hints.RenderFontSize,
	}); err != nil {
		return err
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
