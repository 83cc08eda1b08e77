package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EXPENSES_LOG_LEVEL.
const EnvPrefix = "EXPENSES"

// DatabaseConfig selects and connects to the expense store.
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Identity    string `mapstructure:"identity"`
	RequireDate bool   `mapstructure:"require_date"`
}

// LogConfig controls process logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// Load reads configuration from an optional YAML file, an optional .env
// file and the environment, in increasing order of precedence. An empty
// path looks for config.yaml in the working directory and tolerates its
// absence; an explicit path must exist.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "expenses.db")
	v.SetDefault("database.identity", "surrogate")
	v.SetDefault("database.require_date", true)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variables understood by earlier deployments of the tracker.
	_ = v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DB_URL")
	_ = v.BindEnv("database.user", EnvPrefix+"_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", EnvPrefix+"_DATABASE_PASSWORD", "DB_PASSWORD")

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database dsn is not set (DB_URL or " + EnvPrefix + "_DATABASE_DSN)")
	}
	return nil
}

// DataSource returns the DSN with credentials applied. Credentials are only
// merged into URL-style DSNs; other forms are returned unchanged.
func (d DatabaseConfig) DataSource() (string, error) {
	if d.User == "" && d.Password == "" {
		return d.DSN, nil
	}
	if !strings.Contains(d.DSN, "://") {
		return d.DSN, nil
	}
	u, err := url.Parse(d.DSN)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user := d.User
	if user == "" && u.User != nil {
		user = u.User.Username()
	}
	password := d.Password
	if password == "" && u.User != nil {
		password, _ = u.User.Password()
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String(), nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
