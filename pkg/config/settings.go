package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxFetchTimeout bounds the per-request timeout.
const MaxFetchTimeout = 2 * time.Minute

// Settings holds process-level knobs read from the environment.
type Settings struct {
	Store string // memory, postgres, supabase or mongo

	DatabaseURL string

	SupabaseURL        string
	SupabaseKey        string
	SupabaseDBPassword string

	MongoURI        string
	MongoDB         string
	MongoCollection string

	RedisAddr    string
	RedisPass    string
	RedisDB      int
	LinkCacheTTL time.Duration

	FetchTimeout time.Duration
	Workers      int
	Interval     time.Duration
	SourcesFile  string
}

// LoadSettings reads settings from environment variables, falling back to
// defaults for unset ones. Malformed values are reported as a *ConfigError.
func LoadSettings() (Settings, error) {
	env := &envReader{}
	s := Settings{
		Store:              getenv("INGEST_STORE", "memory"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseKey:        os.Getenv("SUPABASE_KEY"),
		SupabaseDBPassword: os.Getenv("SUPABASE_DB_PASSWORD"),
		MongoURI:           getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getenv("MONGO_DB", "news"),
		MongoCollection:    getenv("MONGO_COLLECTION", "articles"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPass:          os.Getenv("REDIS_PASS"),
		RedisDB:            env.intVar("REDIS_DB", 0),
		LinkCacheTTL:       env.durationVar("LINK_CACHE_TTL", 7*24*time.Hour),
		FetchTimeout:       env.durationVar("FETCH_TIMEOUT", 20*time.Second),
		Workers:            env.intVar("INGEST_WORKERS", 1),
		Interval:           env.durationVar("INGEST_INTERVAL", 30*time.Minute),
		SourcesFile:        os.Getenv("INGEST_SOURCES"),
	}
	if len(env.bad) > 0 {
		return s, &ConfigError{Reason: "invalid environment: " + strings.Join(env.bad, "; ")}
	}
	return s, nil
}

// StoreIdentity names the location of the selected store, for scoping caches
// to it. The in-memory store has no lasting identity and yields "".
func (s Settings) StoreIdentity() string {
	switch s.Store {
	case "postgres":
		return s.DatabaseURL
	case "supabase":
		return s.SupabaseURL + "|" + s.DatabaseURL
	case "mongo":
		return s.MongoURI + "|" + s.MongoDB + "|" + s.MongoCollection
	default:
		return ""
	}
}

// Validate rejects settings the runner cannot start with.
func (s Settings) Validate() error {
	if s.FetchTimeout <= 0 || s.FetchTimeout > MaxFetchTimeout {
		return &ConfigError{Reason: fmt.Sprintf("fetch timeout must be in (0, %s], got %s", MaxFetchTimeout, s.FetchTimeout)}
	}
	if s.Workers < 1 {
		return &ConfigError{Reason: "workers must be at least 1"}
	}
	switch s.Store {
	case "memory":
	case "postgres":
		if s.DatabaseURL == "" {
			return &ConfigError{Reason: "DATABASE_URL is required for the postgres store"}
		}
	case "supabase":
		if s.SupabaseURL == "" {
			return &ConfigError{Reason: "SUPABASE_URL is required for the supabase store"}
		}
		if s.SupabaseKey == "" && s.SupabaseDBPassword == "" && s.DatabaseURL == "" {
			return &ConfigError{Reason: "supabase store needs SUPABASE_KEY or a database password/connection string"}
		}
	case "mongo":
		if s.MongoURI == "" {
			return &ConfigError{Reason: "MONGO_URI is required for the mongo store"}
		}
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown store %q", s.Store)}
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envReader parses typed variables and records the ones that do not parse.
type envReader struct {
	bad []string
}

func (r *envReader) intVar(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.bad = append(r.bad, fmt.Sprintf("%s=%q is not an integer", key, v))
		return def
	}
	return n
}

func (r *envReader) durationVar(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.bad = append(r.bad, fmt.Sprintf("%s=%q is not a duration such as 20s or 30m", key, v))
		return def
	}
	return d
}
