package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	ScreenshotDir string `toml:"screenshot_dir"`
	LogDir        string `toml:"log_dir"`
}

// RetroArch contains the network command interface settings.
type RetroArch struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	CommandTimeout        int    `toml:"command_timeout"`
	SavestateSlot         int    `toml:"savestate_slot"`
	ScreenshotWaitSeconds int    `toml:"screenshot_wait_seconds"`
}

// Input contains controller and trigger-marker settings.
type Input struct {
	Device           string   `toml:"device"`
	RequestChord     []string `toml:"request_chord"`
	ViewChord        []string `toml:"view_chord"`
	MarkerPollMillis int      `toml:"marker_poll_ms"`
	DebounceMillis   int      `toml:"debounce_ms"`
}

// Display contains the hint viewer cascade configuration.
type Display struct {
	Backends              []string `toml:"backends"`
	DismissTimeoutSeconds int      `toml:"dismiss_timeout_seconds"`
}

// Provider contains settings for the AI hint generator.
type Provider struct {
	Name           string `toml:"name"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PromptTemplate string `toml:"prompt_template"`
}

// Hints contains quota, rendering, and notification-text settings.
type Hints struct {
	DailyLimit int `toml:"daily_limit"`

	RenderWidth    int    `toml:"render_width"`
	RenderHeight   int    `toml:"render_height"`
	RenderFontSize int    `toml:"render_font_size"`
	RenderBGColor  string `toml:"render_bg_color"`
	RenderFGColor  string `toml:"render_fg_color"`

	MessageReady        string `toml:"message_ready"`
	MessageGenerating   string `toml:"message_generating"`
	MessageError        string `toml:"message_error"`
	MessageLimitReached string `toml:"message_limit_reached"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for hinter.
//
// Configuration sections by subsystem:
//   - Paths: data, screenshot, and log directories
//   - RetroArch: network command interface and savestate slot
//   - Input: controller device, chords, marker polling, debounce
//   - Display: hint viewer cascade and dismissal timeout
//   - Provider: AI hint generator connection settings
//   - Hints: daily quota, render geometry, on-screen message templates
//   - Notifications: optional ntfy push notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	RetroArch     RetroArch     `toml:"retroarch"`
	Input         Input         `toml:"input"`
	Display       Display       `toml:"display"`
	Provider      Provider      `toml:"provider"`
	Hints         Hints         `toml:"hints"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hinter/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and the provider API key resolved.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hinter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The screenshot directory is created on a best-effort basis because it
// normally belongs to the emulator frontend.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.ArchiveDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ScreenshotDir) != "" {
		_ = os.MkdirAll(c.Paths.ScreenshotDir, 0o755)
	}
	return nil
}

// ArchiveDir returns the directory that stores archived hint artifacts.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.Paths.DataDir, "archive")
}

// SecretsPath returns the path of the optional API key secrets file.
func (c *Config) SecretsPath() string {
	return filepath.Join(c.Paths.DataDir, ".secrets")
}

// UsageDBPath returns the path of the usage event database.
func (c *Config) UsageDBPath() string {
	return filepath.Join(c.Paths.DataDir, "usage.db")
}

// LedgerPath returns the path of the persisted daily quota ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "usage_counter.json")
}

// DaemonLockPath returns the path of the single-instance daemon lock file.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "hinterd.lock")
}

// ConvertBinary returns the ImageMagick executable used for hint rendering.
func (c *Config) ConvertBinary() string {
	return "convert"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
