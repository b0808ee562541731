// Package config loads the server configuration.
//
// Values come from environment variables with sensible defaults, and a
// couple of them can be overridden with command-line flags for local runs:
//
//	PORT=9000 DB_PATH=/tmp/diet.db ./server
//	./server -port 9000 -db /tmp/diet.db
//
// Invalid values fail fast: Load returns an error and main exits, instead of
// the server starting with half a configuration.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // DAY_TIMEZONE must resolve even on hosts without zoneinfo

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the API server.
type Config struct {
	Port   int
	DBPath string

	LogLevel  slog.Level
	LogFormat string // "text" or "json"

	// DayLocation is the time zone used to cut meal timestamps into calendar
	// days for the streak calculation.
	DayLocation *time.Location
	// CountFinalDay makes the most recent day count towards the streak.
	CountFinalDay bool

	CookieSecure       bool
	CORSAllowedOrigins []string
	BcryptCost         int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:               8080,
		DBPath:             "data/dietlog.db",
		LogLevel:           slog.LevelInfo,
		LogFormat:          "text",
		DayLocation:        time.UTC,
		CountFinalDay:      true,
		CookieSecure:       false,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		BcryptCost:         bcrypt.DefaultCost,
	}
}

// Load builds a Config from defaults, then the environment, then os.Args flags.
func Load() (*Config, error) {
	return load(os.LookupEnv, os.Args[1:])
}

// load is the testable core of Load.
func load(lookup func(string) (string, bool), args []string) (*Config, error) {
	cfg := Default()

	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v, ok := lookup("DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", v, err)
		}
	}

	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		v = strings.ToLower(v)
		if v != "text" && v != "json" {
			return nil, fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", v)
		}
		cfg.LogFormat = v
	}

	if v, ok := lookup("DAY_TIMEZONE"); ok && v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid DAY_TIMEZONE %q: %w", v, err)
		}
		cfg.DayLocation = loc
	}

	if v, ok := lookup("STREAK_COUNT_FINAL_DAY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid STREAK_COUNT_FINAL_DAY %q: %w", v, err)
		}
		cfg.CountFinalDay = b
	}

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid COOKIE_SECURE %q: %w", v, err)
		}
		cfg.CookieSecure = b
	}

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	if v, ok := lookup("BCRYPT_COST"); ok && v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid BCRYPT_COST %q: %w", v, err)
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = cost
	}

	if err := parseFlags(&cfg, args); err != nil {
		return nil, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: port %d out of range", cfg.Port)
	}

	return &cfg, nil
}

// parseFlags lets -port and -db override the environment. Unknown flags are
// an error, like any other invalid setting.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP port to listen on")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database file")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: parsing flags: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
