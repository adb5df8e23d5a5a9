package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pandausagies/postbot/internal/logging"
	"github.com/robfig/cron/v3"
)

// Validatable is implemented by config sections that can self-validate.
type Validatable interface {
	Validate() error
}

// Window is a posting window of whole hours, [StartHour, EndHour).
type Window struct {
	StartHour int
	EndHour   int
}

// ParseWindow parses "HH-HH" with 0 <= start < end <= 24.
func ParseWindow(raw string) (Window, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return Window{}, fmt.Errorf("window %q must look like HH-HH", raw)
	}
	startHour, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return Window{}, fmt.Errorf("window %q start hour: %w", raw, err)
	}
	endHour, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return Window{}, fmt.Errorf("window %q end hour: %w", raw, err)
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return Window{}, fmt.Errorf("window %q must satisfy 0 <= start < end <= 24", raw)
	}
	return Window{StartHour: startHour, EndHour: endHour}, nil
}

// ParseWindows parses every configured delay window.
func (c DelayConfig) ParseWindows() ([]Window, error) {
	out := make([]Window, 0, len(c.Windows))
	for _, raw := range c.Windows {
		w, err := ParseWindow(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// ParseWeekday maps an English weekday name (or 3-letter prefix) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if len(needle) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.HasPrefix(strings.ToLower(d.String()), needle) {
				return d, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

// Weekday returns the parsed special weekday.
func (c ImagesConfig) Weekday() (time.Weekday, error) {
	return ParseWeekday(c.SpecialWeekday)
}

// Location returns the configured posting timezone.
func (c PostConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that all four credentials are present.
func (c PlatformConfig) Validate() error {
	missing := make([]string, 0, 4)
	for name, value := range map[string]string{
		"api_key":             c.APIKey,
		"api_secret":          c.APISecret,
		"access_token":        c.AccessToken,
		"access_token_secret": c.AccessTokenSecret,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks required LLM fields.
func (c LLMConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("api_key is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model is required")
	}
	return nil
}

// GenerationEnabled reports whether image generation can run. Without an
// api key the special weekday posts text only.
func (c ImagesConfig) GenerationEnabled() bool {
	return c.Probability > 0 && strings.TrimSpace(c.APIKey) != ""
}

// Validate checks image settings.
func (c ImagesConfig) Validate() error {
	if c.Probability < 0 || c.Probability > 1 {
		return fmt.Errorf("probability must be within [0, 1], got %v", c.Probability)
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	return nil
}

// Validate checks post composition settings.
func (c PostConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.MaxLength <= 0 {
		return errors.New("max_length must be > 0")
	}
	if len(c.Members) == 0 {
		return errors.New("members must not be empty")
	}
	if c.ReleaseLink.Enabled && strings.TrimSpace(c.ReleaseLink.URL) == "" {
		return errors.New("release_link.url is required when release_link.enabled=true")
	}
	return nil
}

// Validate checks delay windows.
func (c DelayConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Windows) == 0 {
		return errors.New("windows must not be empty when enabled=true")
	}
	_, err := c.ParseWindows()
	return err
}

// Validate checks agent caps and queries.
func (c EngagementConfig) Validate() error {
	for name, agent := range map[string]AgentConfig{
		"like_back": c.LikeBack,
		"discovery": c.Discovery,
		"replies":   c.Replies,
	} {
		if agent.Limit < 0 {
			return fmt.Errorf("%s.limit must be >= 0", name)
		}
	}
	if c.Discovery.Enabled && strings.TrimSpace(c.Discovery.Query) == "" {
		return errors.New("discovery.query is required when enabled=true")
	}
	if c.Replies.Enabled && strings.TrimSpace(c.Replies.Query) == "" {
		return errors.New("replies.query is required when enabled=true")
	}
	return nil
}

// Validate checks the cron expression.
func (c ScheduleConfig) Validate() error {
	trimmed := strings.TrimSpace(c.Cron)
	if trimmed == "" {
		return errors.New("cron is required")
	}
	if _, err := cron.ParseStandard(trimmed); err != nil {
		return fmt.Errorf("invalid cron expression %s: %w", c.Cron, err)
	}
	return nil
}

// Validate checks notifier settings when enabled.
func (c TelegramConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("token is required when enabled=true")
	}
	if c.ChatID == 0 {
		return errors.New("chat_id is required when enabled=true")
	}
	return nil
}

// Validate validates the configuration needed for a publishing run and
// returns the first fatal error.
func (cfg *Config) Validate() error {
	errs := cfg.validateContent()
	if err := cfg.Platform.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("platform: %w", err))
	}
	if err := cfg.Notify.Telegram.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("notify.telegram: %w", err))
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ValidateOffline validates only what a dry run needs: generation and
// composition, not platform credentials.
func (cfg *Config) ValidateOffline() error {
	if errs := cfg.validateContent(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (cfg *Config) validateContent() []error {
	var errs []error
	sections := []struct {
		name string
		v    Validatable
	}{
		{"llm", cfg.LLM},
		{"images", cfg.Images},
		{"post", cfg.Post},
		{"delay", cfg.Delay},
		{"engagement", cfg.Engagement},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errs
}
