package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, outputDirEnv, logLevelEnv, databaseDSNEnv, llmProviderEnv, llmModelEnv,
		deepSeekAPIKeyEnv, anthropicKeyEnv, geminiKeyEnv, speechEndpointEnv, speechAPIKeyEnv,
		telegramTokenEnv, telegramChatIDEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cs2wang.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load("")
	require.NoError(t, cfg.Validate())
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	require.Empty(t, cfg.LLM.APIKey)
	require.Equal(t, 24*time.Hour, cfg.Feed.Window)
	require.Equal(t, "https://www.hltv.org/rss/news", cfg.Feed.URL)
	require.Equal(t, 60*time.Second, cfg.Catalog.Timeout)
	require.False(t, cfg.Speech.Enabled())
	require.Equal(t, "zh-CN-YunxiNeural", cfg.Speech.Voice)
	require.Equal(t, filepath.Join(".", "source", "_posts"), cfg.Publisher.PostPath())
	require.Equal(t, filepath.Join(".", "source", "audio"), cfg.Publisher.AudioPath())
	require.True(t, cfg.News.Enabled)
	require.False(t, cfg.Report.Enabled)
	require.Equal(t, 5, cfg.Report.MaxItems)
	require.Equal(t, "Asia/Shanghai", cfg.Scheduler.Location().String())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
logging:
  level: debug
scheduler:
  timezone: Europe/Berlin
scanner:
  topN: 3
  minVolume: 25
llm:
  provider: anthropic
  model: claude-test
publisher:
  root: /srv/blog
market:
  enabled: false
`)

	cfg := Load(path)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	require.Equal(t, 3, cfg.Scanner.TopN)
	require.Equal(t, 25, cfg.Scanner.MinVolume)
	require.InDelta(t, -5.0, cfg.Scanner.UndervaluedBelow, 1e-9)
	require.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	require.Equal(t, "claude-test", cfg.LLM.Model)
	require.Equal(t, filepath.Join("/srv/blog", "source", "_posts"), cfg.Publisher.PostPath())
	require.False(t, cfg.Market.Enabled)
	require.Equal(t, "30 8 * * *", cfg.Market.Schedule)
	require.True(t, cfg.News.Enabled)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
llm:
  provider: gemini
  apiKey: from-file
database:
  dsn: postgres://file
`)
	t.Setenv(configPathEnv, path)
	t.Setenv(geminiKeyEnv, "from-env")
	t.Setenv(deepSeekAPIKeyEnv, "ignored-for-gemini")
	t.Setenv(databaseDSNEnv, "postgres://env")
	t.Setenv(outputDirEnv, "/tmp/site")
	t.Setenv(speechEndpointEnv, "http://localhost:5050")
	t.Setenv(telegramTokenEnv, "bot")
	t.Setenv(telegramChatIDEnv, "chat")
	t.Setenv(logLevelEnv, "warn")

	cfg := Load("")
	require.Equal(t, ProviderGemini, cfg.LLM.Provider)
	require.Equal(t, "from-env", cfg.LLM.APIKey)
	require.Equal(t, "postgres://env", cfg.Database.DSN)
	require.Equal(t, "/tmp/site", cfg.Publisher.Root)
	require.True(t, cfg.Speech.Enabled())
	require.Equal(t, "bot", cfg.Notifications.Telegram.BotToken)
	require.Equal(t, "chat", cfg.Notifications.Telegram.ChatID)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadProviderFromEnvSelectsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(llmProviderEnv, " Anthropic ")
	t.Setenv(anthropicKeyEnv, "sk-ant")
	t.Setenv(deepSeekAPIKeyEnv, "sk-deepseek")

	cfg := Load("")
	require.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	require.Equal(t, "sk-ant", cfg.LLM.APIKey)
}

func TestLoadFallsBackOnBadFile(t *testing.T) {
	clearEnv(t)

	cfg := Load(writeConfig(t, "scanner: [this is not a map"))
	require.Equal(t, DefaultScannerConfig(), cfg.Scanner)

	cfg = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Equal(t, DefaultScannerConfig(), cfg.Scanner)
}

func TestUnknownTimezoneFallsBackToUTC(t *testing.T) {
	clearEnv(t)

	cfg := Load(writeConfig(t, "scheduler:\n  timezone: Mars/Olympus\n"))
	require.Equal(t, time.UTC, cfg.Scheduler.Location())
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "non negative undervalued bound", mutate: func(c *Config) { c.Scanner.UndervaluedBelow = 0 }},
		{name: "non positive overheated bound", mutate: func(c *Config) { c.Scanner.OverheatedAbove = -1 }},
		{name: "negative volume", mutate: func(c *Config) { c.Scanner.MinVolume = -1 }},
		{name: "inverted price bounds", mutate: func(c *Config) { c.Scanner.MaxPrice = 0.5 }},
		{name: "zero top n", mutate: func(c *Config) { c.Scanner.TopN = 0 }},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "mystery" }},
		{name: "zero window", mutate: func(c *Config) { c.Feed.Window = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load("")
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
