package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Asia/Shanghai"
	configPathEnv     = "CS2WANG_CONFIG"
	outputDirEnv      = "CS2WANG_OUTPUT_DIR"
	logLevelEnv       = "LOG_LEVEL"
	databaseDSNEnv    = "DATABASE_DSN"
	llmProviderEnv    = "LLM_PROVIDER"
	llmModelEnv       = "LLM_MODEL"
	deepSeekAPIKeyEnv = "DEEPSEEK_API_KEY"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	geminiKeyEnv      = "GEMINI_API_KEY"
	speechEndpointEnv = "SPEECH_ENDPOINT"
	speechAPIKeyEnv   = "SPEECH_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// LLM providers understood by the chat client factory.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Feed          FeedConfig         `yaml:"feed"`
	Catalog       CatalogConfig      `yaml:"catalog"`
	Scanner       ScannerConfig      `yaml:"scanner"`
	LLM           LLMConfig          `yaml:"llm"`
	Speech        SpeechConfig       `yaml:"speech"`
	Publisher     PublisherConfig    `yaml:"publisher"`
	Notifications NotificationConfig `yaml:"notifications"`
	News          PipelineConfig     `yaml:"news"`
	Market        PipelineConfig     `yaml:"market"`
	Report        PipelineConfig     `yaml:"report"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the optional Postgres report archive.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines the time zone cron expressions and post dates are evaluated in.
type SchedulerConfig struct {
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FeedConfig points at the news feed.
type FeedConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	Window    time.Duration `yaml:"window"`
	UserAgent string        `yaml:"userAgent"`
}

// CatalogConfig points at the bulk price catalog endpoint.
type CatalogConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// ScannerConfig tunes the market scan. Percentages are signed deviation bounds.
type ScannerConfig struct {
	UndervaluedBelow float64 `yaml:"undervaluedBelow"`
	OverheatedAbove  float64 `yaml:"overheatedAbove"`
	MinVolume        int     `yaml:"minVolume"`
	MinPrice         float64 `yaml:"minPrice"`
	MaxPrice         float64 `yaml:"maxPrice"`
	TopN             int     `yaml:"topN"`
}

// Validate rejects configurations the scanner cannot apply meaningfully.
func (s ScannerConfig) Validate() error {
	if s.UndervaluedBelow >= 0 {
		return fmt.Errorf("scanner.undervaluedBelow must be negative, got %v", s.UndervaluedBelow)
	}
	if s.OverheatedAbove <= 0 {
		return fmt.Errorf("scanner.overheatedAbove must be positive, got %v", s.OverheatedAbove)
	}
	if s.MinVolume < 0 {
		return fmt.Errorf("scanner.minVolume cannot be negative")
	}
	if s.MinPrice < 0 || s.MaxPrice < s.MinPrice {
		return fmt.Errorf("scanner price bounds invalid: %v..%v", s.MinPrice, s.MaxPrice)
	}
	if s.TopN <= 0 {
		return fmt.Errorf("scanner.topN must be positive")
	}
	return nil
}

// LLMConfig defines how to contact the language model.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SpeechConfig defines the OpenAI-compatible speech endpoint used for narration.
type SpeechConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Model    string        `yaml:"model"`
	Voice    string        `yaml:"voice"`
	Format   string        `yaml:"format"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Enabled reports whether narration can be attempted.
func (s SpeechConfig) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != ""
}

// PublisherConfig lays out the static-site directories.
type PublisherConfig struct {
	Root           string `yaml:"root"`
	PostDir        string `yaml:"postDir"`
	AudioDir       string `yaml:"audioDir"`
	AudioURLPrefix string `yaml:"audioUrlPrefix"`
}

// PostPath is the directory posts are written to.
func (p PublisherConfig) PostPath() string {
	return filepath.Join(p.Root, p.PostDir)
}

// AudioPath is the directory narration files are written to.
func (p PublisherConfig) AudioPath() string {
	return filepath.Join(p.Root, p.AudioDir)
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
// SiteURL, when set, is the blog's public root used to link announced posts.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	SiteURL  string `yaml:"siteUrl"`
}

// PipelineConfig carries the post metadata and prompts of one pipeline.
// Title, Description and the prompt User field are text/template strings over .Date and .Content.
type PipelineConfig struct {
	Enabled     bool         `yaml:"enabled"`
	Schedule    string       `yaml:"schedule"`
	MaxItems    int          `yaml:"maxItems"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Tags        []string     `yaml:"tags"`
	Narrate     bool         `yaml:"narrate"`
	Intro       string       `yaml:"intro"`
	AudioLabel  string       `yaml:"audioLabel"`
	Prompt      PromptConfig `yaml:"prompt"`
}

// PromptConfig is the system/user prompt pair sent to the model.
type PromptConfig struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to CS2WANG_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate checks cross-field constraints after loading.
func (c Config) Validate() error {
	if err := c.Scanner.Validate(); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.Feed.Window <= 0 {
		return fmt.Errorf("feed.window must be positive")
	}
	return nil
}

// DefaultScannerConfig returns the canonical scan thresholds.
func DefaultScannerConfig() ScannerConfig {
	return defaultConfig().Scanner
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Publisher.Root = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(apiKeyEnv(c.LLM.Provider)); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(speechEndpointEnv); v != "" {
		c.Speech.Endpoint = v
	}

	if v := os.Getenv(speechAPIKeyEnv); v != "" {
		c.Speech.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func apiKeyEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return anthropicKeyEnv
	case ProviderGemini:
		return geminiKeyEnv
	default:
		return deepSeekAPIKeyEnv
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone},
		Feed: FeedConfig{
			URL:       "https://www.hltv.org/rss/news",
			Timeout:   20 * time.Second,
			Window:    24 * time.Hour,
			UserAgent: "cs2wang/1.0",
		},
		Catalog: CatalogConfig{
			Endpoint:  "https://csgobackpack.net/api/GetItemsList/v2/",
			Timeout:   60 * time.Second,
			UserAgent: "cs2wang/1.0",
		},
		Scanner: ScannerConfig{
			UndervaluedBelow: -5,
			OverheatedAbove:  10,
			MinVolume:        10,
			MinPrice:         1,
			MaxPrice:         5000,
			TopN:             8,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.7,
			MaxTokens:   2048,
			Timeout:     120 * time.Second,
		},
		Speech: SpeechConfig{
			Model:   "tts-1",
			Voice:   "zh-CN-YunxiNeural",
			Format:  "mp3",
			Timeout: 90 * time.Second,
		},
		Publisher: PublisherConfig{
			Root:           ".",
			PostDir:        "source/_posts",
			AudioDir:       "source/audio",
			AudioURLPrefix: "/audio",
		},
		News: PipelineConfig{
			Enabled:     true,
			Schedule:    "0 8 * * *",
			Title:       "{{.Date}} CS2 全球战报：HLTV 每日速递",
			Description: "过去24小时圈内大事一览。AI 自动聚合生成。",
			Tags:        []string{"电竞新闻", "CS2资讯", "播客"},
			Narrate:     true,
			Intro:       "大家好，这里是 CS2 全球战报。",
			AudioLabel:  "📻 电竞日报 (点击收听)",
			Prompt: PromptConfig{
				System: "你是由 HLTV 认证的 CS2 电竞主编。",
				User: "请把以下英文快讯总结成一份中文“CS2 日报”。\n快讯：\n{{.Content}}\n\n" +
					"要求：\n1. 分板块：【赛事战报】、【战队变动】、【社区资讯】。\n2. 语气专业、干练。\n3. 适合做成广播稿朗读。",
			},
		},
		Market: PipelineConfig{
			Enabled:     true,
			Schedule:    "30 8 * * *",
			Title:       "{{.Date}} CS2 饰品量化扫描：超跌与过热榜",
			Description: "基于 24 小时均价与 30 日均价偏离度的饰品市场扫描。",
			Tags:        []string{"量化分析", "CS2", "饰品市场"},
			Narrate:     true,
			Intro:       "大家好，这里是 CS2 饰品量化日报。",
			AudioLabel:  "📈 量化日报 (点击收听)",
			Prompt: PromptConfig{
				System: "你是一位专业的 CS2 饰品市场量化分析师，擅长均值回归策略。",
				User: "日期: {{.Date}}\n以下是今日扫描出的偏离 30 日均价最显著的饰品：\n{{.Content}}\n\n" +
					"请写一篇简短犀利的“饰品量化日报”。\n要求：\n1. 包含“超跌机会”、“过热预警”、“操作建议”三个板块。\n" +
					"2. 结合成交量判断信号可靠性。\n3. 字数控制在 600 字以内。\n4. 结尾提示投资风险。",
			},
		},
		Report: PipelineConfig{
			Enabled:     false,
			Schedule:    "0 9 * * *",
			MaxItems:    5,
			Title:       "{{.Date}} CS2 市场每日简报",
			Description: "AI 自动生成的每日 CS2 市场深度分析。",
			Tags:        []string{"自动化研报", "CS2", "市场分析"},
			Prompt: PromptConfig{
				System: "请你扮演一位专业的 CS2 饰品市场分析师。",
				User: "日期: {{.Date}}\n【今日 CS2 新闻摘要】\n{{.Content}}\n\n" +
					"基于以上新闻，写一篇简短犀利的“每日市场观察”。\n要求：\n1. 标题不包含 markdown 标记。\n" +
					"2. 如果新闻跟饰品无关，就编撰一些关于“市场情绪平稳”的分析。\n" +
					"3. 风格类似金融研报，包含“市场情绪”、“重点关注”、“投资建议”三个板块。\n4. 字数控制在 500 字以内。",
			},
		},
	}
}
