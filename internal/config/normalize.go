package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRetroArch()
	c.normalizeInput()
	c.normalizeDisplay()
	if err := c.normalizeProvider(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScreenshotDir) == "" {
		c.Paths.ScreenshotDir = defaultScreenshotDir
	}
	if c.Paths.ScreenshotDir, err = expandPath(c.Paths.ScreenshotDir); err != nil {
		return fmt.Errorf("paths.screenshot_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRetroArch() {
	c.RetroArch.Host = strings.TrimSpace(c.RetroArch.Host)
	if c.RetroArch.Host == "" {
		c.RetroArch.Host = defaultRetroArchHost
	}
	if c.RetroArch.Port <= 0 {
		c.RetroArch.Port = defaultRetroArchPort
	}
	if c.RetroArch.CommandTimeout <= 0 {
		c.RetroArch.CommandTimeout = defaultCommandTimeout
	}
	if c.RetroArch.ScreenshotWaitSeconds <= 0 {
		c.RetroArch.ScreenshotWaitSeconds = defaultScreenshotWaitSeconds
	}
}

func (c *Config) normalizeInput() {
	c.Input.Device = strings.TrimSpace(c.Input.Device)
	c.Input.RequestChord = normalizeChord(c.Input.RequestChord)
	c.Input.ViewChord = normalizeChord(c.Input.ViewChord)
	if c.Input.MarkerPollMillis <= 0 {
		c.Input.MarkerPollMillis = defaultMarkerPollMillis
	}
	if c.Input.DebounceMillis < 0 {
		c.Input.DebounceMillis = defaultDebounceMillis
	}
}

func normalizeChord(buttons []string) []string {
	cleaned := make([]string, 0, len(buttons))
	for _, b := range buttons {
		b = strings.ToUpper(strings.TrimSpace(b))
		if b != "" {
			cleaned = append(cleaned, b)
		}
	}
	return cleaned
}

func (c *Config) normalizeDisplay() {
	backends := make([]string, 0, len(c.Display.Backends))
	for _, b := range c.Display.Backends {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			backends = append(backends, b)
		}
	}
	if len(backends) == 0 {
		backends = defaultBackends()
	}
	c.Display.Backends = backends
	if c.Display.DismissTimeoutSeconds <= 0 {
		c.Display.DismissTimeoutSeconds = defaultDismissTimeoutSeconds
	}
}

// normalizeProvider resolves the API key in priority order: environment
// variable, secrets file in the data directory, then the config file itself.
func (c *Config) normalizeProvider() error {
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	if c.Provider.Name == "" {
		c.Provider.Name = defaultProviderName
	}
	if strings.TrimSpace(c.Provider.Model) == "" {
		c.Provider.Model = defaultAnthropicModel
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = defaultProviderMaxTokens
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = defaultProviderTimeoutSeconds
	}
	if strings.TrimSpace(c.Provider.PromptTemplate) == "" {
		c.Provider.PromptTemplate = defaultPromptTemplate
	}
	c.Provider.BaseURL = strings.TrimSpace(c.Provider.BaseURL)
	if c.Provider.BaseURL == "" {
		switch c.Provider.Name {
		case "openai":
			c.Provider.BaseURL = defaultOpenAIBaseURL
		default:
			c.Provider.BaseURL = defaultAnthropicBaseURL
		}
	}

	if strings.TrimSpace(c.Provider.APIKey) != "" {
		return nil
	}

	envVar := "ANTHROPIC_API_KEY"
	if c.Provider.Name == "openai" {
		envVar = "OPENAI_API_KEY"
	}
	if value, ok := os.LookupEnv(envVar); ok && strings.TrimSpace(value) != "" {
		c.Provider.APIKey = strings.TrimSpace(value)
		return nil
	}

	key, err := readSecretsKey(c.SecretsPath())
	if err != nil {
		return err
	}
	c.Provider.APIKey = key
	return nil
}

// readSecretsKey reads an API_KEY=value entry from a simple secrets file.
// A missing file is not an error; validation decides whether a key is required.
func readSecretsKey(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open secrets file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if strings.TrimSpace(key) == "API_KEY" {
			return strings.TrimSpace(value), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	return "", nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
