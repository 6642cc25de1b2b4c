package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. It is loaded once at startup
// and passed to every component that needs it.
type Config struct {
	Server struct {
		Host      string `yaml:"host"`
		Port      string `yaml:"port"`
		Prefork   bool   `yaml:"prefork"`
		BodyLimit int    `yaml:"body_limit"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Mail MailConfig `yaml:"mail"`

	Assets struct {
		Dir           string `yaml:"dir"`
		SignatureFont string `yaml:"signature_font"`
		Logo          string `yaml:"logo"`
	} `yaml:"assets"`

	Association struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"association"`

	RateLimiter struct {
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
		UserLimit         int           `yaml:"user_limit"`
		Interval          time.Duration `yaml:"interval"`
	} `yaml:"rate_limiter"`

	Cache struct {
		RedisHost   string        `yaml:"redis_host"`
		RateLimitDB int           `yaml:"redis_rate_db"`
		GuardDB     int           `yaml:"redis_guard_db"`
		GuardTTL    time.Duration `yaml:"guard_ttl"`
	} `yaml:"cache"`

	Audit struct {
		Enabled  bool           `yaml:"enabled"`
		Postgres PostgresConfig `yaml:"postgres"`
	} `yaml:"audit"`
}

// MailConfig describes the SMTP relay and the outgoing message.
type MailConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	TLSPolicy      string        `yaml:"tls_policy"`
	Timeout        time.Duration `yaml:"timeout"`
	From           string        `yaml:"from"`
	Association    string        `yaml:"association"`
	Subject        string        `yaml:"subject"`
	Body           string        `yaml:"body"`
	AttachmentName string        `yaml:"attachment_name"`
}

// PostgresConfig locates the delivery journal database.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// DefaultConfig returns the settings used for anything a config file leaves out.
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.Port = ":3001"
	cfg.Server.BodyLimit = 64 * 1024

	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 28

	cfg.Mail.Host = "smtp.gmail.com"
	cfg.Mail.Port = 587
	cfg.Mail.TLSPolicy = "mandatory"
	cfg.Mail.Timeout = 30 * time.Second
	cfg.Mail.Subject = "PDF d’engagement DUCK23"
	cfg.Mail.Body = "Veuillez trouver ci-joint le PDF signé pour votre adhésion à l’association DUCK23."
	cfg.Mail.AttachmentName = "engagement_duck23.pdf"

	cfg.Assets.Dir = "docs"
	cfg.Assets.SignatureFont = "signature-font.ttf"
	cfg.Assets.Logo = "logo-duck23.png"

	cfg.Association.Name = "DUCK23"
	cfg.Association.Email = "duck23.asso@gmail.com"

	cfg.RateLimiter.Interval = time.Minute
	cfg.Cache.GuardTTL = 10 * time.Minute
	return cfg
}

// LoadConfig reads the file named by CONFIG_PATH (config.yaml by default).
// It panics when the configuration is unusable.
func LoadConfig() Config {
	return LoadConfigFrom(ConfigPath())
}

// ConfigPath is the value of CONFIG_PATH, or config.yaml.
func ConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

// LoadConfigFrom is LoadConfig for an explicit path.
func LoadConfigFrom(path string) Config {
	cfg, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// ReadConfig reads and validates a configuration file. A missing file
// yields the defaults; environment variables override both.
func ReadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv honours PORT and the MAIL_* variables of the deployment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Server.Port = v
	}
	if v := os.Getenv("MAIL_HOST"); v != "" {
		cfg.Mail.Host = v
	}
	if v := os.Getenv("MAIL_USER"); v != "" {
		cfg.Mail.Username = v
	}
	if v := os.Getenv("MAIL_PASS"); v != "" {
		cfg.Mail.Password = v
	}
	// The relay account doubles as sender and association mailbox.
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}
	if cfg.Mail.Association == "" {
		cfg.Mail.Association = cfg.Association.Email
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	port := strings.TrimPrefix(c.Server.Port, ":")
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}
	if c.Server.BodyLimit < 0 {
		return fmt.Errorf("server body_limit must not be negative")
	}
	if c.Mail.Port < 1 || c.Mail.Port > 65535 {
		return fmt.Errorf("invalid mail port %d", c.Mail.Port)
	}
	if c.Assets.SignatureFont == "" || c.Assets.Logo == "" {
		return fmt.Errorf("assets signature_font and logo are required")
	}
	if c.Association.Name == "" {
		return fmt.Errorf("association name is required")
	}
	if c.RateLimiter.UserLimit < 0 {
		return fmt.Errorf("rate_limiter user_limit must not be negative")
	}
	if (c.RateLimiter.EnableUserLimiter || c.RateLimiter.UserLimit > 0) && c.RateLimiter.Interval <= 0 {
		return fmt.Errorf("rate_limiter interval must be positive")
	}
	if c.Cache.GuardTTL < 0 {
		return fmt.Errorf("cache guard_ttl must not be negative")
	}
	if c.Audit.Enabled && c.Audit.Postgres.Host == "" {
		return fmt.Errorf("audit postgres host is required when audit is enabled")
	}
	return nil
}
