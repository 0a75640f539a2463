// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int    `yaml:"port"`
	BaseURL         string `yaml:"base_url"`          // public origin, used for the rate-limit fail redirect
	FrontendBaseURL string `yaml:"frontend_base_url"` // origin of the web client for ru-locale redirects
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type FreekassaConfig struct {
	ShopID          string        `yaml:"shop_id"`
	APIKey          string        `yaml:"api_key"`  // signs outbound invoice requests (HMAC-SHA256)
	Secret2         string        `yaml:"secret_2"` // keyed into the webhook MD5 signature
	PaymentSystemID int           `yaml:"payment_system_id"`
	InvoiceAPIURI   string        `yaml:"invoice_api_uri"`
	AllowedIPs      []string      `yaml:"allowed_ips"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type RatesConfig struct {
	URL      string        `yaml:"url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Fallback float64       `yaml:"fallback"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SecurityConfig struct {
	EncryptionKey string        `yaml:"encryption_key"` // 16/24/32 bytes, email cookie token
	AdminSecret   string        `yaml:"admin_secret"`   // JWT HMAC secret for the admin surface
	AdminPassword string        `yaml:"admin_password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type MailConfig struct {
	From string `yaml:"from"`
}

type GeoConfig struct {
	ServiceURL string `yaml:"service_url"`
	DefaultISO string `yaml:"default_iso"`
}

type CronConfig struct {
	ReminderSpec       string `yaml:"reminder_spec"`        // payment reminder schedule
	NewCustomerSpec    string `yaml:"new_customer_spec"`    // new-customer coupon schedule
	UpsellSpec         string `yaml:"upsell_spec"`          // long-plan upsell offer schedule
	ReminderWindowDays int    `yaml:"reminder_window_days"` // how soon before expiry to remind
}

type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Log       LogConfig           `yaml:"log"`
	Database  DatabaseConfig      `yaml:"database"`
	Redis     RedisConfig         `yaml:"redis"`
	Freekassa FreekassaConfig     `yaml:"freekassa"`
	Rates     RatesConfig         `yaml:"rates"`
	Security  SecurityConfig      `yaml:"security"`
	Mail      MailConfig          `yaml:"mail"`
	Geo       GeoConfig           `yaml:"geo"`
	Cron      CronConfig          `yaml:"cron"`
	FixEmails map[string][]string `yaml:"fix_emails"` // canonical domain -> common typos

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Freekassa.RequestTimeout <= 0 {
		cfg.Freekassa.RequestTimeout = 60 * time.Second
	}
	if cfg.Rates.URL == "" {
		cfg.Rates.URL = "https://www.cbr-xml-daily.ru/daily_json.js"
	}
	if cfg.Rates.CacheTTL <= 0 {
		cfg.Rates.CacheTTL = 6 * time.Second
	}
	if cfg.Rates.Fallback <= 0 {
		cfg.Rates.Fallback = 80
	}
	if cfg.Rates.Timeout <= 0 {
		cfg.Rates.Timeout = 60 * time.Second
	}
	if cfg.Security.SessionTTL <= 0 {
		cfg.Security.SessionTTL = 30 * time.Minute
	}
	if cfg.Geo.DefaultISO == "" {
		cfg.Geo.DefaultISO = "us"
	}
	if cfg.Cron.ReminderSpec == "" {
		cfg.Cron.ReminderSpec = "0 9 * * *"
	}
	if cfg.Cron.NewCustomerSpec == "" {
		cfg.Cron.NewCustomerSpec = "30 10 * * *"
	}
	if cfg.Cron.UpsellSpec == "" {
		cfg.Cron.UpsellSpec = "0 11 * * *"
	}
	if cfg.Cron.ReminderWindowDays <= 0 {
		cfg.Cron.ReminderWindowDays = 3
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Freekassa.ShopID == "" {
		return nil, errors.New("freekassa.shop_id is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
