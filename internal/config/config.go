package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

// Storage backends accepted by COFFEE_BACKEND.
const (
	BackendSQL    = "sql"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// SQL drivers accepted by DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	Addr            string        `yaml:"addr" env:"ADDR" env-default:":8080"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	Backend         string        `yaml:"backend" env:"COFFEE_BACKEND" env-default:"sql"`
	BadgerPath      string        `yaml:"badger_path" env:"BADGER_PATH" env-default:"./data/coffees"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	Database   DatabaseConfig   `yaml:"database"`
	Pagination PaginationConfig `yaml:"pagination"`
	Purge      PurgeConfig      `yaml:"purge"`
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER" env-default:"mysql"`
	URL             string `yaml:"url" env:"DATABASE_URL"`
	Host            string `yaml:"host" env:"DB_HOST" env-default:"db"`
	Port            string `yaml:"port" env:"DB_PORT" env-default:"3306"`
	Name            string `yaml:"name" env:"DB_NAME" env-default:"coffees"`
	User            string `yaml:"user" env:"DB_USER" env-default:"appuser"`
	Password        string `yaml:"password" env:"DB_PASSWORD" env-default:"apppass"`
	Charset         string `yaml:"charset" env:"DB_CHARSET" env-default:"utf8mb4"`
	Collation       string `yaml:"collation" env:"DB_COLLATION" env-default:"utf8mb4_unicode_ci"`
	Timeout         string `yaml:"timeout" env:"DB_TIMEOUT" env-default:"5s"`
	Path            string `yaml:"path" env:"DB_PATH" env-default:"./data/coffees.db"`
	ConnectAttempts int    `yaml:"connect_attempts" env:"DB_CONNECT_ATTEMPTS" env-default:"30"`
}

// PaginationConfig bounds the page size used by the list endpoint.
type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"PAGE_SIZE_DEFAULT" env-default:"50"`
	MaxLimit     int `yaml:"max_limit" env:"PAGE_SIZE_MAX" env-default:"100"`
}

// PurgeConfig drives the tombstone purge loop.
type PurgeConfig struct {
	Enabled     bool          `yaml:"enabled" env:"PURGE_ENABLED" env-default:"false"`
	Interval    time.Duration `yaml:"interval" env:"PURGE_INTERVAL" env-default:"1m"`
	Retention   time.Duration `yaml:"retention" env:"PURGE_RETENTION" env-default:"24h"`
	LockName    string        `yaml:"lock_name" env:"PURGE_LOCK_NAME" env-default:"coffee-tombstone-purge"`
	LockTimeout int           `yaml:"lock_timeout" env:"PURGE_LOCK_TIMEOUT" env-default:"0"`
}

// Load reads configuration from the YAML file at path, if any, and then
// from the environment. Environment variables always win.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQL, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want sql, badger or memory)", c.Backend)
	}
	if c.Backend == BackendSQL {
		switch c.Database.Driver {
		case DriverMySQL, DriverPostgres, DriverSQLite:
		default:
			return fmt.Errorf("unknown database driver %q (want mysql, postgres or sqlite3)", c.Database.Driver)
		}
	}
	if c.Pagination.DefaultLimit <= 0 || c.Pagination.MaxLimit <= 0 {
		return errors.New("page sizes must be positive")
	}
	if c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		return errors.New("default page size exceeds the maximum")
	}
	if c.Purge.Interval <= 0 {
		return errors.New("purge interval must be positive")
	}
	return nil
}

// DSN builds the driver-specific data source name. DATABASE_URL, when set,
// is used verbatim.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return strings.TrimPrefix(d.URL, "mysql://")
	}

	switch d.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			d.Host, d.Port, d.User, d.Password, d.Name)
	case DriverSQLite:
		if d.Path == ":memory:" {
			return d.Path
		}
		return fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", d.Path)
	default:
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = d.Host + ":" + d.Port
		cfg.DBName = d.Name
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params["charset"] = d.Charset
		cfg.Params["collation"] = d.Collation
		cfg.Params["timeout"] = d.Timeout
		return cfg.FormatDSN()
	}
}
