package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"ticket-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Logging logging.Config `mapstructure:"logging"`
	Browser BrowserConfig  `mapstructure:"browser"`
	Target  TargetConfig   `mapstructure:"target"`
	Check   CheckConfig    `mapstructure:"check"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Notify  NotifyConfig   `mapstructure:"notify"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// BrowserConfig governs the headless Chrome session.
type BrowserConfig struct {
	Headless    bool          `mapstructure:"headless"`
	ExecPath    string        `mapstructure:"exec_path"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// TargetConfig names the reservation pages to watch. URL is the primary
// target; URLs extends the run to several museums checked sequentially.
type TargetConfig struct {
	Name string   `mapstructure:"name"`
	URL  string   `mapstructure:"url"`
	URLs []string `mapstructure:"urls"`
}

// CheckConfig selects the dates to inspect and where evidence lands.
type CheckConfig struct {
	Date          string   `mapstructure:"date"`
	Dates         []string `mapstructure:"dates"`
	ScreenshotDir string   `mapstructure:"screenshot_dir"`
}

// WatchConfig governs the periodic re-check cadence.
type WatchConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// NotifyConfig defines alert channels; each is independently optional.
type NotifyConfig struct {
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Desktop  DesktopConfig  `mapstructure:"desktop"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

// DesktopConfig toggles local toast notifications.
type DesktopConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TelegramConfig describes the Telegram bot channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// EmailConfig describes the SMTP channel.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TICKETALERTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ticketwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", "45s")
	v.SetDefault("browser.settle_delay", "2s")

	v.SetDefault("target.name", "chichu")
	v.SetDefault("target.url", "https://benesse-artsite.eventos.tokyo/web/portal/797/event/8483/module/booth/239565/176695?language=eng")

	v.SetDefault("check.date", "2025-10-07")
	v.SetDefault("check.screenshot_dir", "screenshots")

	v.SetDefault("watch.interval", "20m")
	v.SetDefault("watch.align_to_bucket", false)
	v.SetDefault("watch.startup_delay", "0s")

	v.SetDefault("notify.cooldown", "30m")
	v.SetDefault("notify.desktop.enabled", false)
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("notify.email.enabled", false)
	v.SetDefault("notify.email.smtp_host", "smtp.gmail.com")
	v.SetDefault("notify.email.smtp_port", 587)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be greater than zero")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if c.Check.ScreenshotDir == "" {
		return fmt.Errorf("check.screenshot_dir must not be empty")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.From == "" || c.Notify.Email.To == "" {
			return fmt.Errorf("notify.email.from and notify.email.to are required when email is enabled")
		}
		if c.Notify.Email.Password == "" {
			return fmt.Errorf("notify.email.password is required when email is enabled")
		}
	}
	return nil
}

// ResolveDates returns the CLI override when present, then the configured
// list, then the single default date.
func (c *Config) ResolveDates(override []string) []string {
	if len(override) > 0 {
		return override
	}
	if len(c.Check.Dates) > 0 {
		return c.Check.Dates
	}
	if c.Check.Date != "" {
		return []string{c.Check.Date}
	}
	return nil
}

// Targets expands the target configuration into the sequential check list.
func (c *Config) Targets() []TargetConfig {
	if len(c.Target.URLs) > 0 {
		targets := make([]TargetConfig, 0, len(c.Target.URLs))
		for i, url := range c.Target.URLs {
			targets = append(targets, TargetConfig{Name: fmt.Sprintf("target-%d", i+1), URL: url})
		}
		return targets
	}
	return []TargetConfig{{Name: c.Target.Name, URL: c.Target.URL}}
}
