package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"timetable-ical-backend/internal/calendar"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Timetable  TimetableConfig  `yaml:"timetable"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`

	// Account configures a single account; Accounts configures several.
	// Load folds both into the uniform Accounts list, so downstream code
	// only ever sees the list.
	Account  *Account  `yaml:"account"`
	Accounts []Account `yaml:"accounts"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestIPHeader string        `yaml:"request_ip_header"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// TimetableConfig holds generation defaults shared by all accounts.
type TimetableConfig struct {
	Timezone     string `yaml:"timezone"`
	CalendarName string `yaml:"calendar_name"`
	DefaultWeeks int    `yaml:"default_weeks"`
}

// EnrichmentConfig controls the teacher-enrichment fallback.
type EnrichmentConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxDetails int  `yaml:"max_details"`
	Verbose    bool `yaml:"verbose"`
}

// Account is one set of provider credentials. BaseURL, when set, points at
// a self-hosted instance and skips server-name resolution.
type Account struct {
	ID       string `yaml:"id"`
	Domain   string `yaml:"domain"`
	School   string `yaml:"school"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	BaseURL  string `yaml:"base_url"`
}

// complete reports whether the account carries everything a fetch needs.
func (a Account) complete() bool {
	return a.ID != "" && (a.Domain != "" || a.BaseURL != "") &&
		a.School != "" && a.Username != "" && a.Password != ""
}

// Load reads the configuration from the given path and normalizes it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Timetable.Timezone == "" {
		cfg.Timetable.Timezone = calendar.DefaultTimezone
	}
	if cfg.Timetable.CalendarName == "" {
		cfg.Timetable.CalendarName = "Timetable"
	}
	if cfg.Timetable.DefaultWeeks <= 0 {
		cfg.Timetable.DefaultWeeks = 4
	}
	if cfg.Enrichment.MaxDetails <= 0 {
		cfg.Enrichment.MaxDetails = 60
	}

	cfg.Accounts = normalizeAccounts(cfg.Account, cfg.Accounts)
	cfg.Account = nil
	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no complete account configured")
	}

	return &cfg, nil
}

// normalizeAccounts folds the single-account and list variants into one
// uniform list, trimming fields, lowercasing ids and dropping incomplete
// entries.
func normalizeAccounts(single *Account, list []Account) []Account {
	var raw []Account
	if single != nil {
		s := *single
		if s.ID == "" {
			s.ID = "default"
		}
		raw = append(raw, s)
	}
	raw = append(raw, list...)

	out := make([]Account, 0, len(raw))
	seen := make(map[string]bool)
	for _, a := range raw {
		a.ID = strings.ToLower(strings.TrimSpace(a.ID))
		a.Domain = strings.TrimSpace(a.Domain)
		a.School = strings.TrimSpace(a.School)
		a.Username = strings.TrimSpace(a.Username)
		a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
		if !a.complete() {
			log.Printf("dropping incomplete account config %q", a.ID)
			continue
		}
		if seen[a.ID] {
			log.Printf("dropping duplicate account config %q", a.ID)
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}

// AccountByID looks up an account by its lowercase id.
func (c *Config) AccountByID(id string) (Account, bool) {
	id = strings.ToLower(id)
	for _, a := range c.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
