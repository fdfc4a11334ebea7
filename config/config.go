package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Query    QueryConfig    `toml:"query"`
	CORS     CORSConfig     `toml:"cors"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port            string   `toml:"port"`
	Mode            string   `toml:"mode"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"ssl_mode"`
	// Path is the database file used by the sqlite driver.
	Path string `toml:"path"`
}

type QueryConfig struct {
	DefaultLimit int      `toml:"default_limit"`
	MaxLimit     int      `toml:"max_limit"`
	Debounce     Duration `toml:"debounce"`
	FetchTimeout Duration `toml:"fetch_timeout"`
	CacheSize    int      `toml:"cache_size"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LogConfig struct {
	Debug bool `toml:"debug"`
	// DebugFor enables debug output for the named components only.
	DebugFor []string `toml:"debug_for"`
}

// Duration is a time.Duration that reads and writes as text ("300ms", "5s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func (c *DatabaseConfig) ConnectionString() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Load builds the configuration from environment variables, falling back to
// development defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Mode:            getEnv("GIN_MODE", "debug"),
			ShutdownTimeout: Duration{getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)},
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", DriverPostgres),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "backoffice"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "backoffice.db"),
		},
		Query: QueryConfig{
			DefaultLimit: getEnvInt("QUERY_DEFAULT_LIMIT", 10),
			MaxLimit:     getEnvInt("QUERY_MAX_LIMIT", 100),
			Debounce:     Duration{getEnvDuration("QUERY_DEBOUNCE", 300*time.Millisecond)},
			FetchTimeout: Duration{getEnvDuration("QUERY_FETCH_TIMEOUT", 15*time.Second)},
			CacheSize:    getEnvInt("QUERY_CACHE_SIZE", 256),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:5173",
			}),
		},
		Log: LogConfig{
			Debug:    getEnvBool("LOG_DEBUG", false),
			DebugFor: getEnvList("LOG_DEBUG_FOR", nil),
		},
	}
}

// LoadFile loads the environment configuration and overlays the TOML file at
// path on top of it. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("query.default_limit must be positive")
	}
	if c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("query.max_limit must be >= query.default_limit")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
