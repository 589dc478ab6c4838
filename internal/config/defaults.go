package config

const (
	defaultDataDir       = "/userdata/system/ai-hints"
	defaultScreenshotDir = "/userdata/screenshots"

	defaultRetroArchHost         = "127.0.0.1"
	defaultRetroArchPort         = 55355
	defaultCommandTimeout        = 2
	defaultSavestateSlot         = 9
	defaultScreenshotWaitSeconds = 10

	defaultInputDevice      = "/dev/input/event0"
	defaultMarkerPollMillis = 200
	defaultDebounceMillis   = 750

	defaultDismissTimeoutSeconds = 300

	defaultProviderName           = "anthropic"
	defaultAnthropicBaseURL       = "https://api.anthropic.com/v1/messages"
	defaultOpenAIBaseURL          = "https://api.openai.com/v1/chat/completions"
	defaultAnthropicModel         = "claude-sonnet-4-20250514"
	defaultProviderMaxTokens      = 300
	defaultProviderTimeoutSeconds = 60

	defaultDailyLimit     = 10
	defaultRenderWidth    = 1280
	defaultRenderHeight   = 720
	defaultRenderFontSize = 32
	defaultRenderBGColor  = "rgb(32,32,32)"
	defaultRenderFGColor  = "rgb(255,255,255)"

	defaultMessageReady        = "Hint Ready! Press Select+R1 to view."
	defaultMessageGenerating   = "Generating hint..."
	defaultMessageError        = "Hint failed. Try again."
	defaultMessageLimitReached = "Daily limit reached! (%d/%d)"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

const defaultPromptTemplate = `You are helping a player who is stuck in a retro video game.

System: {system}
Game: {game}

Based on the screenshot, provide a brief, spoiler-minimal hint about what to do next.
- Keep it to 2-3 sentences maximum
- Be specific to what's visible on screen
- Don't reveal major plot points or surprises
- Focus on the immediate obstacle or puzzle

Provide only the hint text, no preamble.`

func defaultBackends() []string {
	return []string{"fbv", "mpv", "fbi", "feh", "retroarch"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			ScreenshotDir: defaultScreenshotDir,
		},
		RetroArch: RetroArch{
			Host:                  defaultRetroArchHost,
			Port:                  defaultRetroArchPort,
			CommandTimeout:        defaultCommandTimeout,
			SavestateSlot:         defaultSavestateSlot,
			ScreenshotWaitSeconds: defaultScreenshotWaitSeconds,
		},
		Input: Input{
			Device:           defaultInputDevice,
			RequestChord:     []string{"BTN_SELECT", "BTN_TL"},
			ViewChord:        []string{"BTN_SELECT", "BTN_TR"},
			MarkerPollMillis: defaultMarkerPollMillis,
			DebounceMillis:   defaultDebounceMillis,
		},
		Display: Display{
			Backends:              defaultBackends(),
			DismissTimeoutSeconds: defaultDismissTimeoutSeconds,
		},
		Provider: Provider{
			Name:           defaultProviderName,
			Model:          defaultAnthropicModel,
			MaxTokens:      defaultProviderMaxTokens,
			TimeoutSeconds: defaultProviderTimeoutSeconds,
			PromptTemplate: defaultPromptTemplate,
		},
		Hints: Hints{
			DailyLimit:          defaultDailyLimit,
			RenderWidth:         defaultRenderWidth,
			RenderHeight:        defaultRenderHeight,
			RenderFontSize:      defaultRenderFontSize,
			RenderBGColor:       defaultRenderBGColor,
			RenderFGColor:       defaultRenderFGColor,
			MessageReady:        defaultMessageReady,
			MessageGenerating:   defaultMessageGenerating,
			MessageError:        defaultMessageError,
			MessageLimitReached: defaultMessageLimitReached,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
