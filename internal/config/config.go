package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Geo      GeoConfig      `yaml:"geo"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Stats    StatsConfig    `yaml:"stats"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig: Path is the local SQLite file, URL the PostgreSQL connection
// string of the multi-tenant variant.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	CronSecret     string   `yaml:"cron_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// GeoConfig configures position sampling. FixFile is the JSON file a GPS bridge
// keeps updated; without it clock-in is not geofenced unless coordinates are
// passed on the command line.
type GeoConfig struct {
	RadiusMeters float64       `yaml:"radius_meters"`
	FixFile      string        `yaml:"fix_file"`
	FixTimeout   time.Duration `yaml:"fix_timeout"`
	FixMaxAge    time.Duration `yaml:"fix_max_age"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type GeocoderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Language  string        `yaml:"language"`
	Timeout   time.Duration `yaml:"timeout"`
}

type StatsConfig struct {
	WeeklyGoalHours float64 `yaml:"weekly_goal_hours"`
	TrendWeeks      int     `yaml:"trend_weeks"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "Nanny Hours Tracker",
		},
		Geo: GeoConfig{
			RadiusMeters: 50,
			FixTimeout:   10 * time.Second,
			FixMaxAge:    2 * time.Minute,
			PollInterval: 2 * time.Second,
		},
		Geocoder: GeocoderConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "nannyclock",
			Timeout:   10 * time.Second,
		},
		Stats: StatsConfig{
			WeeklyGoalHours: 35,
			TrendWeeks:      4,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.nannyclock/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".nannyclock", "config.yaml"), nil
}

// Load builds the configuration from defaults, the YAML file at path, a .env file
// in the working directory and the environment, in that order. An empty path
// means DefaultPath, which may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := parseYAML(data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseYAML replaces ${VAR} placeholders with environment values, then decodes
// over cfg.
func parseYAML(data []byte, cfg *Config) error {
	content := string(data)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		content = strings.ReplaceAll(content, "${"+pair[0]+"}", pair[1])
	}

	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Database.Path = getEnv("NANNYCLOCK_DB_PATH", cfg.Database.Path)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)

	cfg.Server.CronSecret = getEnv("CRON_SECRET", cfg.Server.CronSecret)
	if origins := getEnvSlice("CORS_ALLOWED_ORIGINS"); len(origins) > 0 {
		cfg.Server.AllowedOrigins = origins
	}

	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)
	cfg.SMTP.FromName = getEnv("SMTP_FROM_NAME", cfg.SMTP.FromName)

	cfg.Geo.FixFile = getEnv("NANNYCLOCK_FIX_FILE", cfg.Geo.FixFile)
	cfg.Geocoder.BaseURL = getEnv("GEOCODER_URL", cfg.Geocoder.BaseURL)
	cfg.Geocoder.Language = getEnv("GEOCODER_LANGUAGE", cfg.Geocoder.Language)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	var err error
	if cfg.Server.Port, err = getEnvInt("PORT", cfg.Server.Port); err != nil {
		return err
	}
	if cfg.SMTP.Port, err = getEnvInt("SMTP_PORT", cfg.SMTP.Port); err != nil {
		return err
	}
	if goal := os.Getenv("WEEKLY_GOAL_HOURS"); goal != "" {
		hours, err := strconv.ParseFloat(goal, 64)
		if err != nil {
			return fmt.Errorf("invalid WEEKLY_GOAL_HOURS: %w", err)
		}
		cfg.Stats.WeeklyGoalHours = hours
	}
	return nil
}

// Validate checks the settings every command relies on
func (c *Config) Validate() error {
	if c.Geo.RadiusMeters <= 0 {
		return fmt.Errorf("geo.radius_meters must be positive")
	}
	if c.Geo.FixTimeout <= 0 {
		return fmt.Errorf("geo.fix_timeout must be positive")
	}
	if c.Stats.WeeklyGoalHours <= 0 {
		return fmt.Errorf("stats.weekly_goal_hours must be positive")
	}
	if c.Stats.TrendWeeks <= 0 {
		return fmt.Errorf("stats.trend_weeks must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// ValidateTeam checks the multi-tenant database settings
func (c *Config) ValidateTeam() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// ValidateServer checks what `serve` needs on top of ValidateTeam
func (c *Config) ValidateServer() error {
	if err := c.ValidateTeam(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required")
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvSlice(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
