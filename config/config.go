// Package config loads the service configuration. Values come from the
// defaults, then an optional YAML file, then the environment (which may be
// seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"streamlens/filter"
	"streamlens/notifier"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the full streamlens configuration.
type Config struct {
	DataPath        string        `yaml:"data_path"`
	TitlesSource    string        `yaml:"titles_source"`
	PricesSource    string        `yaml:"prices_source"`
	Listen          string        `yaml:"listen"`
	ChartDir        string        `yaml:"chart_dir"`
	ChartWidth      int           `yaml:"chart_width"`
	ChartHeight     int           `yaml:"chart_height"`
	ReloadSchedule  []string      `yaml:"reload_schedule"`
	ReloadAtStartup bool          `yaml:"reload_at_startup"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	YearFloor       int           `yaml:"year_floor"`
	GenreMode       string        `yaml:"genre_mode"`
	Email           EmailConfig   `yaml:"email"`
}

// EmailConfig configures reload notifications. Mail is disabled unless a
// host and a recipient are set.
type EmailConfig struct {
	SMTPHost  string `yaml:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port"`
	Username  string `yaml:"username"`
	Sender    string `yaml:"sender"`
	Password  string `yaml:"password"`
	Recipient string `yaml:"recipient"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		DataPath:       "./data",
		Listen:         ":8080",
		ChartDir:       "./charts",
		ChartWidth:     1024,
		ChartHeight:    512,
		ReloadSchedule: []string{"0 0 10 * * *", "0 0 17 * * *"},
		JobTimeout:     30 * time.Minute,
		YearFloor:      1900,
		GenreMode:      string(filter.GenreStrict),
		Email: EmailConfig{
			SMTPPort: 587,
		},
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	envString("DATA_PATH", &c.DataPath)
	envString("TITLES_SOURCE", &c.TitlesSource)
	envString("PRICES_SOURCE", &c.PricesSource)
	envString("LISTEN_ADDR", &c.Listen)
	envString("CHART_DIR", &c.ChartDir)
	envString("GENRE_MODE", &c.GenreMode)
	envString("EMAIL_SMTP_HOST", &c.Email.SMTPHost)
	envString("EMAIL_USERNAME", &c.Email.Username)
	envString("EMAIL_SENDER", &c.Email.Sender)
	envString("EMAIL_PASSWORD", &c.Email.Password)
	envString("EMAIL_RECIPIENT", &c.Email.Recipient)

	if v, ok := os.LookupEnv("RELOAD_SCHEDULE"); ok {
		c.ReloadSchedule = splitSchedule(v)
	}
	if v, ok := os.LookupEnv("RUN_AT_STARTUP"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: RUN_AT_STARTUP: %v", ErrInvalidConfig, err)
		}
		c.ReloadAtStartup = b
	}
	if v, ok := os.LookupEnv("JOB_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: JOB_TIMEOUT: %v", ErrInvalidConfig, err)
		}
		c.JobTimeout = d
	}
	for name, dst := range map[string]*int{
		"CHART_WIDTH":     &c.ChartWidth,
		"CHART_HEIGHT":    &c.ChartHeight,
		"YEAR_FLOOR":      &c.YearFloor,
		"EMAIL_SMTP_PORT": &c.Email.SMTPPort,
	} {
		if err := envInt(name, dst); err != nil {
			return err
		}
	}
	return nil
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	*dst = n
	return nil
}

// splitSchedule splits on ';' because cron specs contain spaces and commas.
func splitSchedule(v string) []string {
	var specs []string
	for _, s := range strings.Split(v, ";") {
		if s = strings.TrimSpace(s); s != "" {
			specs = append(specs, s)
		}
	}
	return specs
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("%w: data_path is required", ErrInvalidConfig)
	}
	if c.Listen == "" {
		return fmt.Errorf("%w: listen is required", ErrInvalidConfig)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("%w: chart size must be > 0, got %dx%d", ErrInvalidConfig, c.ChartWidth, c.ChartHeight)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job_timeout must be > 0", ErrInvalidConfig)
	}
	if _, err := filter.ParseGenreMode(c.GenreMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Email.SMTPHost != "" && c.Email.SMTPPort <= 0 {
		return fmt.Errorf("%w: email smtp_port must be > 0", ErrInvalidConfig)
	}
	return nil
}

// Engine returns the filter engine for the configured genre mode.
func (c *Config) Engine() filter.Engine {
	mode, _ := filter.ParseGenreMode(c.GenreMode)
	return filter.Engine{GenreMode: mode}
}

// Notifier converts the email settings for the notifier package.
func (e EmailConfig) Notifier() notifier.EmailConfig {
	return notifier.EmailConfig{
		SMTPHost:       e.SMTPHost,
		SMTPPort:       e.SMTPPort,
		Username:       e.Username,
		SenderEmail:    e.Sender,
		SenderPassword: e.Password,
		RecipientEmail: e.Recipient,
	}
}

// Enabled reports whether reload mails should be sent.
func (e EmailConfig) Enabled() bool {
	return e.Notifier().Enabled()
}
