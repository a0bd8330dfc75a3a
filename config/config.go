package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ENV_FILE   = ".env"
	AUTH_REALM = "SECCONFDB"
)

type Config struct {
	Server         ServerConfig
	MySQL          MySQLConfig
	Mongo          MongoConfig
	JWT            JWTConfig
	Log            LogConfig
	MigrateOnStart bool
	DefaultTags    []string
}

type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type MySQLConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	MaxRetries      int
	RetryInterval   time.Duration
}

type MongoConfig struct {
	ConnString string
	Database   string
}

type JWTConfig struct {
	Sign string
	TTL  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from an optional .env file and the
// environment, environment taking precedence.
func Load() (*Config, error) {
	return LoadFile(ENV_FILE)
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot read config file %v: %w", path, err)
		}
	}
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("SERVER_HOST"),
			Port:        v.GetInt("SERVER_PORT"),
			Environment: v.GetString("APP_ENVIRONMENT"),
		},
		MySQL: MySQLConfig{
			Host:            v.GetString("MYSQL_HOST"),
			Port:            v.GetInt("MYSQL_PORT"),
			User:            v.GetString("MYSQL_USER"),
			Password:        v.GetString("MYSQL_PASSWORD"),
			Database:        v.GetString("MYSQL_DATABASE"),
			MaxOpenConns:    v.GetInt("MYSQL_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("MYSQL_CONN_MAX_LIFETIME"),
			MaxRetries:      v.GetInt("MYSQL_MAX_RETRIES"),
			RetryInterval:   v.GetDuration("MYSQL_RETRY_INTERVAL"),
		},
		Mongo: MongoConfig{
			ConnString: v.GetString("MONGODB_CONNSTRING"),
			Database:   v.GetString("MONGODB_DATABASE"),
		},
		JWT: JWTConfig{
			Sign: v.GetString("SIGN"),
			TTL:  v.GetDuration("JWT_TTL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		DefaultTags:    splitList(v.GetString("DEFAULT_TAGS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 80)
	v.SetDefault("APP_ENVIRONMENT", "production")

	v.SetDefault("MYSQL_HOST", "localhost")
	v.SetDefault("MYSQL_PORT", 3306)
	v.SetDefault("MYSQL_USER", "secconfdb")
	v.SetDefault("MYSQL_DATABASE", "secconfdb")
	v.SetDefault("MYSQL_MAX_OPEN_CONNS", 10)
	v.SetDefault("MYSQL_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("MYSQL_MAX_RETRIES", 3)
	v.SetDefault("MYSQL_RETRY_INTERVAL", "2s")

	v.SetDefault("MONGODB_DATABASE", "secconfdb")

	v.SetDefault("JWT_TTL", "8h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("DEFAULT_TAGS", "security,privacy,crypto")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %v", c.Server.Port)
	}
	if c.MySQL.Database == "" {
		return errors.New("MYSQL_DATABASE is required")
	}
	if c.Mongo.ConnString == "" {
		return errors.New("MONGODB_CONNSTRING is required")
	}
	if c.JWT.Sign == "" {
		return errors.New("SIGN is required")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
