package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xaenox/bizchat/internal/embedding"
	"go.uber.org/zap"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"

	CatalogShared     = "shared"
	CatalogPerSession = "per_session"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Session   SessionConfig   `mapstructure:"session"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	CORSOriginPattern string        `mapstructure:"cors_origin_pattern"`
}

type KnowledgeConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
	// Watch reloads the catalog when the file changes. File source only.
	Watch bool `mapstructure:"watch"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type EmbeddingConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Dims     int           `mapstructure:"dims"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Embedding converts the section into the embedding package's settings.
func (c EmbeddingConfig) Embedding() embedding.Config {
	return embedding.Config{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Dims:     c.Dims,
		Timeout:  c.Timeout,
	}
}

type MatcherConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type SessionConfig struct {
	MaxHistory   int    `mapstructure:"max_history"`
	ContextTurns int    `mapstructure:"context_turns"`
	CatalogMode  string `mapstructure:"catalog_mode"`
}

type MessagesConfig struct {
	EmptyInput string `mapstructure:"empty_input"`
	Apology    string `mapstructure:"apology"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		if _, err := fmt.Sscanf(u.Port(), "%d", &port); err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q: %w", u.Port(), err)
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.cors_origin_pattern", `^https?://(localhost|127\.0\.0\.1)(:\d+)?$`)

	v.SetDefault("knowledge.source", SourceFile)
	v.SetDefault("knowledge.path", "data/knowledge_base.json")
	v.SetDefault("knowledge.watch", false)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "bizchat")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("embedding.provider", "local")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.dims", 0)
	v.SetDefault("embedding.timeout", 10*time.Second)

	v.SetDefault("matcher.threshold", 0.5)

	v.SetDefault("session.max_history", 5)
	v.SetDefault("session.context_turns", 0)
	v.SetDefault("session.catalog_mode", CatalogShared)

	v.SetDefault("messages.empty_input", "")
	v.SetDefault("messages.apology", "")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads path (YAML) on top of the defaults and applies environment
// overrides. BIZCHAT_SECTION_KEY overrides section.key. A missing file is not
// an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BIZCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed variables understood by hosting platforms.
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("telegram_token", "TELEGRAM_TOKEN")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if dbURL := v.GetString("database_url"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := v.GetString("telegram_token"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := v.GetString("openai_api_key"); apiKey != "" && config.Embedding.APIKey == "" {
		config.Embedding.APIKey = apiKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Knowledge.Source {
	case SourceFile:
		if c.Knowledge.Path == "" {
			errs = append(errs, errors.New("knowledge.path is required for the file source"))
		}
	case SourcePostgres:
		if c.Knowledge.Watch {
			errs = append(errs, errors.New("knowledge.watch is only supported for the file source"))
		}
	default:
		errs = append(errs, fmt.Errorf("knowledge.source: unknown source %q", c.Knowledge.Source))
	}

	if err := c.Embedding.Embedding().Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Matcher.Threshold < 0 || c.Matcher.Threshold > 1 {
		errs = append(errs, fmt.Errorf("matcher.threshold must be within [0, 1], got %v", c.Matcher.Threshold))
	}

	if c.Session.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("session.max_history must be positive, got %d", c.Session.MaxHistory))
	}
	if c.Session.ContextTurns < 0 {
		errs = append(errs, fmt.Errorf("session.context_turns must not be negative, got %d", c.Session.ContextTurns))
	}
	if c.Session.CatalogMode != CatalogShared && c.Session.CatalogMode != CatalogPerSession {
		errs = append(errs, fmt.Errorf("session.catalog_mode: unknown mode %q", c.Session.CatalogMode))
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token (or TELEGRAM_TOKEN) is required when telegram is enabled"))
	}

	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger from the log section.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	return zc.Build()
}
