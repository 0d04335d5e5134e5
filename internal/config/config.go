package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Duration reads "24h"-style strings from JSON and env, or plain seconds from JSON numbers.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	secs, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type ServerConfig struct {
	Host      string `json:"host" env:"YAMDB_HOST"`
	Port      int    `json:"port" env:"YAMDB_PORT"`
	Subpath   string `json:"subpath" env:"YAMDB_SUBPATH"`
	JWTSecret string `json:"jwtSecret" env:"YAMDB_JWT_SECRET"`
	LogLevel  string `json:"logLevel" env:"YAMDB_LOG_LEVEL"`
}

type DatabaseConfig struct {
	Driver string `json:"driver" env:"YAMDB_DB_DRIVER"` // postgres | sqlite
	DSN    string `json:"dsn" env:"YAMDB_DB_DSN"`
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"YAMDB_REDIS_ADDR"`
	Password string `json:"password" env:"YAMDB_REDIS_PASSWORD"`
	DB       int    `json:"db" env:"YAMDB_REDIS_DB"`
}

type AuthConfig struct {
	AccessTokenTTL Duration `json:"accessTokenTtl" env:"YAMDB_ACCESS_TOKEN_TTL"`
	CodeTTL        Duration `json:"codeTtl" env:"YAMDB_CODE_TTL"`
	ResendCooldown Duration `json:"resendCooldown" env:"YAMDB_RESEND_COOLDOWN"`
}

type MailConfig struct {
	Backend  string `json:"backend" env:"YAMDB_MAIL_BACKEND"` // smtp | log
	Host     string `json:"host" env:"YAMDB_MAIL_HOST"`
	Port     int    `json:"port" env:"YAMDB_MAIL_PORT"`
	Username string `json:"username" env:"YAMDB_MAIL_USERNAME"`
	Password string `json:"password" env:"YAMDB_MAIL_PASSWORD"`
	From     string `json:"from" env:"YAMDB_MAIL_FROM"`
}

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Auth     AuthConfig     `json:"auth"`
	Mail     MailConfig     `json:"mail"`
}

const (
	DefaultAccessTokenTTL = 24 * time.Hour
	DefaultCodeTTL        = 15 * time.Minute
	DefaultResendCooldown = time.Minute
	DefaultMailFrom       = "noreply@yamdb.local"
)

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads the JSON config from disk, overlays YAMDB_* environment
// variables and applies defaults (singleton). A missing file is fine when the
// environment carries everything.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		var c Config
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &c); err != nil {
				cfgErr = fmt.Errorf("invalid config format: %w", err)
				return
			}
		case errors.Is(err, os.ErrNotExist) && os.Getenv("YAMDB_JWT_SECRET") != "":
		default:
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		if err := env.Parse(&c); err != nil {
			cfgErr = fmt.Errorf("parse env: %w", err)
			return
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			cfgErr = err
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Subpath == "" {
		c.Server.Subpath = "/api/v1"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Auth.AccessTokenTTL.Duration == 0 {
		c.Auth.AccessTokenTTL.Duration = DefaultAccessTokenTTL
	}
	if c.Auth.CodeTTL.Duration == 0 {
		c.Auth.CodeTTL.Duration = DefaultCodeTTL
	}
	if c.Auth.ResendCooldown.Duration == 0 {
		c.Auth.ResendCooldown.Duration = DefaultResendCooldown
	}
	if c.Mail.Backend == "" {
		c.Mail.Backend = "log"
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.From == "" {
		c.Mail.From = DefaultMailFrom
	}
}

func (c *Config) Validate() error {
	if c.Server.JWTSecret == "" {
		return errors.New("jwtSecret must be set in config")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn must be set")
	}
	switch c.Mail.Backend {
	case "log":
	case "smtp":
		if c.Mail.Host == "" {
			return errors.New("mail host must be set for the smtp backend")
		}
	default:
		return fmt.Errorf("unknown mail backend %q", c.Mail.Backend)
	}
	if c.Auth.AccessTokenTTL.Duration < 0 || c.Auth.CodeTTL.Duration < 0 || c.Auth.ResendCooldown.Duration < 0 {
		return errors.New("auth durations must be positive")
	}
	return nil
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
