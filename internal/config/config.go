// Package config loads postbot runtime configuration from defaults, a TOML file, .env files and environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// ProviderOpenAI talks to the OpenAI chat completions API.
	ProviderOpenAI = "openai"
	// ProviderOpenRouter talks to OpenRouter's OpenAI-compatible API.
	ProviderOpenRouter = "openrouter"
	// ProviderAnthropic talks to the Anthropic messages API.
	ProviderAnthropic = "anthropic"
)

// Config is the runtime configuration loaded once at startup.
type Config struct {
	// HomeDir is runtime-resolved from POSTBOT_HOME and not read from config.
	HomeDir    string           `mapstructure:"-"`
	Platform   PlatformConfig   `mapstructure:"platform"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Images     ImagesConfig     `mapstructure:"images"`
	Post       PostConfig       `mapstructure:"post"`
	Delay      DelayConfig      `mapstructure:"delay"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Log        LogConfig        `mapstructure:"log"`
}

// PlatformConfig holds the four static X credentials and API endpoints.
type PlatformConfig struct {
	APIKey            string `mapstructure:"api_key"`
	APISecret         string `mapstructure:"api_secret"`
	AccessToken       string `mapstructure:"access_token"`
	AccessTokenSecret string `mapstructure:"access_token_secret"`
	APIURL            string `mapstructure:"api_url"`
	UploadURL         string `mapstructure:"upload_url"`
}

// LLMConfig configures the text generation provider.
type LLMConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// ImagesConfig configures image attachment and generation.
type ImagesConfig struct {
	Probability    float64 `mapstructure:"probability"`
	Dir            string  `mapstructure:"dir"`
	GeneratedDir   string  `mapstructure:"generated_dir"`
	SpecialWeekday string  `mapstructure:"special_weekday"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Size           string  `mapstructure:"size"`
	Quality        string  `mapstructure:"quality"`
}

// PostConfig configures the composed post.
type PostConfig struct {
	Timezone    string            `mapstructure:"timezone"`
	MaxLength   int               `mapstructure:"max_length"`
	Members     []string          `mapstructure:"members"`
	ReleaseLink ReleaseLinkConfig `mapstructure:"release_link"`
}

// ReleaseLinkConfig toggles a link line under the signature.
type ReleaseLinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// DelayConfig configures the optional randomized pre-run delay.
type DelayConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Windows []string `mapstructure:"windows"`
}

// EngagementConfig groups the three engagement agents.
type EngagementConfig struct {
	LikeBack  AgentConfig `mapstructure:"like_back"`
	Discovery AgentConfig `mapstructure:"discovery"`
	Replies   AgentConfig `mapstructure:"replies"`
}

// AgentConfig configures one engagement agent.
type AgentConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Limit   int    `mapstructure:"limit"`
	Query   string `mapstructure:"query"`
}

// ScheduleConfig configures `postbot serve`.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// NotifyConfig configures post-publish notifications.
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig configures the Telegram notifier.
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaultConfig = Config{
	Platform: PlatformConfig{
		APIURL:    "https://api.x.com",
		UploadURL: "https://upload.twitter.com",
	},
	LLM: LLMConfig{
		Provider:  ProviderOpenAI,
		Model:     "gpt-4.1-mini",
		MaxTokens: 120,
	},
	Images: ImagesConfig{
		Probability:    0.25,
		SpecialWeekday: "friday",
		Model:          "gpt-image-1",
		Size:           "1024x1024",
		Quality:        "high",
	},
	Post: PostConfig{
		Timezone:  "Asia/Tokyo",
		MaxLength: 270,
		Members:   []string{"ポキヌ", "チョビア", "ラムヌ", "ボーロコ", "グミナ"},
		ReleaseLink: ReleaseLinkConfig{
			Enabled: false,
			URL:     "https://example.com",
		},
	},
	Delay: DelayConfig{
		Enabled: false,
		Windows: []string{"18-20", "22-24"},
	},
	Engagement: EngagementConfig{
		LikeBack: AgentConfig{Enabled: true, Limit: 10},
		Discovery: AgentConfig{
			Enabled: true,
			Limit:   10,
			Query:   "バンド 女子 OR ガールズバンド OR 学生バンド OR ライブハウス -is:retweet lang:ja",
		},
		Replies: AgentConfig{
			Enabled: true,
			Limit:   2,
			Query:   "バンド 女子 OR ガールズバンド OR 学生バンド -is:retweet lang:ja",
		},
	},
	Schedule: ScheduleConfig{
		Cron: "0 17 * * *",
	},
	Log: LogConfig{
		Level: "info",
	},
}

// defaultUserConfig is the minimal bootstrap config written for first-time
// users. It only holds user-editable essentials.
var defaultUserConfig = map[string]any{
	"platform.api_key":             "$API_KEY",
	"platform.api_secret":          "$API_SECRET",
	"platform.access_token":        "$ACCESS_TOKEN",
	"platform.access_token_secret": "$ACCESS_TOKEN_SECRET",
	"llm.provider":                 ProviderOpenAI,
	"llm.api_key":                  "$OPENAI_API_KEY",
	"llm.model":                    defaultConfig.LLM.Model,
	"images.probability":           defaultConfig.Images.Probability,
	"post.members":                 defaultConfig.Post.Members,
}

// envBindings maps config keys to legacy environment variables. The
// POSTBOT_<SECTION>_<KEY> form is always accepted as well.
var envBindings = map[string][]string{
	"platform.api_key":             {"API_KEY"},
	"platform.api_secret":          {"API_SECRET"},
	"platform.access_token":        {"ACCESS_TOKEN"},
	"platform.access_token_secret": {"ACCESS_TOKEN_SECRET"},
	"llm.provider":                 {"LLM_PROVIDER"},
	"llm.api_key":                  {"OPENAI_API_KEY"},
	"llm.model":                    {"LLM_MODEL"},
	"images.api_key":               {"OPENAI_API_KEY"},
	"images.probability":           {"IMAGE_PROBABILITY"},
	"post.release_link.enabled":    {"USE_RELEASE_LINK"},
	"post.release_link.url":        {"RELEASE_LINK_URL"},
	"delay.enabled":                {"RANDOM_DELAY"},
	"notify.telegram.token":        {"TELEGRAM_TOKEN"},
	"notify.telegram.chat_id":      {"TELEGRAM_CHAT_ID"},
	"log.level":                    {"LOG_LEVEL"},
}

// homeDir returns the postbot home directory.
// Uses POSTBOT_HOME if set, otherwise defaults to ~/.postbot.
func homeDir() (string, error) {
	if dir := os.Getenv("POSTBOT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// Load merges hardcoded defaults, config.toml, .env files and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	LoadEnvFiles(".env", ".env.local")

	homeDir, err := homeDir()
	if err != nil {
		return nil, err
	}
	LoadEnvFiles(homeEnvPath(homeDir))

	v, err := newViper(homeDir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = homeDir
	if cfg.Images.Dir == "" {
		cfg.Images.Dir = cfg.defaultImageDir()
	}
	if cfg.Images.GeneratedDir == "" {
		cfg.Images.GeneratedDir = cfg.defaultGeneratedDir()
	}
	if cfg.Images.APIKey == "" && cfg.LLM.Provider == ProviderOpenAI {
		cfg.Images.APIKey = cfg.LLM.APIKey
	}

	return &cfg, nil
}

// Write writes the merged configuration to w in TOML format.
func Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}

	homeDir, err := homeDir()
	if err != nil {
		return err
	}
	v, err := newViper(homeDir)
	if err != nil {
		return err
	}

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultUserConfigTOML renders the minimal bootstrap user config as TOML.
func DefaultUserConfigTOML() (string, error) {
	v := viper.New()
	v.SetConfigType("toml")
	for key, value := range defaultUserConfig {
		v.Set(key, value)
	}

	var out bytes.Buffer
	if err := v.WriteConfigTo(&out); err != nil {
		return "", fmt.Errorf("write default user config: %w", err)
	}
	return out.String(), nil
}

func newViper(homeDir string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(homeConfigPath(homeDir))
	v.SetConfigType("toml")

	v.SetEnvPrefix("POSTBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		names := append([]string{"POSTBOT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	d := defaultConfig

	v.SetDefault("platform.api_key", d.Platform.APIKey)
	v.SetDefault("platform.api_secret", d.Platform.APISecret)
	v.SetDefault("platform.access_token", d.Platform.AccessToken)
	v.SetDefault("platform.access_token_secret", d.Platform.AccessTokenSecret)
	v.SetDefault("platform.api_url", d.Platform.APIURL)
	v.SetDefault("platform.upload_url", d.Platform.UploadURL)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)

	v.SetDefault("images.probability", d.Images.Probability)
	v.SetDefault("images.dir", d.Images.Dir)
	v.SetDefault("images.generated_dir", d.Images.GeneratedDir)
	v.SetDefault("images.special_weekday", d.Images.SpecialWeekday)
	v.SetDefault("images.api_key", d.Images.APIKey)
	v.SetDefault("images.base_url", d.Images.BaseURL)
	v.SetDefault("images.model", d.Images.Model)
	v.SetDefault("images.size", d.Images.Size)
	v.SetDefault("images.quality", d.Images.Quality)

	v.SetDefault("post.timezone", d.Post.Timezone)
	v.SetDefault("post.max_length", d.Post.MaxLength)
	v.SetDefault("post.members", d.Post.Members)
	v.SetDefault("post.release_link.enabled", d.Post.ReleaseLink.Enabled)
	v.SetDefault("post.release_link.url", d.Post.ReleaseLink.URL)

	v.SetDefault("delay.enabled", d.Delay.Enabled)
	v.SetDefault("delay.windows", d.Delay.Windows)

	for name, agent := range map[string]AgentConfig{
		"like_back": d.Engagement.LikeBack,
		"discovery": d.Engagement.Discovery,
		"replies":   d.Engagement.Replies,
	} {
		v.SetDefault("engagement."+name+".enabled", agent.Enabled)
		v.SetDefault("engagement."+name+".limit", agent.Limit)
		v.SetDefault("engagement."+name+".query", agent.Query)
	}

	v.SetDefault("schedule.cron", d.Schedule.Cron)

	v.SetDefault("notify.telegram.enabled", d.Notify.Telegram.Enabled)
	v.SetDefault("notify.telegram.token", d.Notify.Telegram.Token)
	v.SetDefault("notify.telegram.chat_id", d.Notify.Telegram.ChatID)

	v.SetDefault("log.level", d.Log.Level)
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
