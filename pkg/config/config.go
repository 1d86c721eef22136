package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Netrefer  NetreferConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env       string
	Port      int
	LogLevel  string
	LogFormat string
}

type ServerConfig struct {
	RequestTimeout time.Duration
}

// NetreferConfig describes the upstream List API and its credentials.
// Either APIToken or the Username/Password/TokenURL triple must be set.
type NetreferConfig struct {
	Endpoint          string
	TokenURL          string
	ClientID          string
	Username          string
	Password          string
	Scopes            []string
	APIToken          string
	SubscriptionKey   string
	PageSize          int
	MaxPages          int
	ConsumerBatchSize int
	Timeout           time.Duration
	TokenLeeway       time.Duration
}

type CORSConfig struct {
	AllowOrigins []string
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// Load reads config.yaml from path (and the usual fallbacks), then
// the environment. A .env file in the working directory is honoured.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)
	if err := bindEnvVariables(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Netrefer.Scopes = splitList(cfg.Netrefer.Scopes)
	cfg.CORS.AllowOrigins = splitList(cfg.CORS.AllowOrigins)

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port %d", c.App.Port)
	}
	if c.Netrefer.Endpoint == "" {
		return errors.New("netrefer endpoint is required")
	}
	if c.Netrefer.PageSize <= 0 {
		return fmt.Errorf("netrefer page size must be positive, got %d", c.Netrefer.PageSize)
	}
	if c.Netrefer.ConsumerBatchSize <= 0 {
		return fmt.Errorf("netrefer consumer batch size must be positive, got %d", c.Netrefer.ConsumerBatchSize)
	}
	if c.Netrefer.APIToken == "" {
		if c.Netrefer.Username == "" || c.Netrefer.Password == "" {
			return errors.New("netrefer credentials are required: set NETREFER_API_TOKEN or NETREFER_USERNAME and NETREFER_PASSWORD")
		}
		if c.Netrefer.TokenURL == "" {
			return errors.New("netrefer token url is required for password authentication")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8000)
	v.SetDefault("app.loglevel", "info")
	v.SetDefault("app.logformat", "text")

	v.SetDefault("server.requesttimeout", "60s")

	v.SetDefault("netrefer.endpoint", "http://api.netrefer.com/api/list/v1")
	v.SetDefault("netrefer.tokenurl", "")
	v.SetDefault("netrefer.clientid", "")
	v.SetDefault("netrefer.username", "")
	v.SetDefault("netrefer.password", "")
	v.SetDefault("netrefer.scopes", []string{})
	v.SetDefault("netrefer.apitoken", "")
	v.SetDefault("netrefer.subscriptionkey", "")
	v.SetDefault("netrefer.pagesize", 800)
	v.SetDefault("netrefer.maxpages", 500)
	v.SetDefault("netrefer.consumerbatchsize", 200)
	v.SetDefault("netrefer.timeout", "30s")
	v.SetDefault("netrefer.tokenleeway", "60s")

	v.SetDefault("cors.alloworigins", []string{"*"})

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests", 60)
	v.SetDefault("ratelimit.window", "60s")
}

var envBindings = map[string]string{
	"app.env":       "APP_ENV",
	"app.port":      "APP_PORT",
	"app.loglevel":  "LOG_LEVEL",
	"app.logformat": "LOG_FORMAT",

	"server.requesttimeout": "REQUEST_TIMEOUT",

	"netrefer.endpoint":          "NETREFER_API_ENDPOINT",
	"netrefer.tokenurl":          "NETREFER_TOKEN_URL",
	"netrefer.clientid":          "NETREFER_CLIENT_ID",
	"netrefer.username":          "NETREFER_USERNAME",
	"netrefer.password":          "NETREFER_PASSWORD",
	"netrefer.scopes":            "NETREFER_SCOPES",
	"netrefer.apitoken":          "NETREFER_API_TOKEN",
	"netrefer.subscriptionkey":   "NETREFER_API_SUBSCRIPTION_KEY",
	"netrefer.pagesize":          "NETREFER_PAGE_SIZE",
	"netrefer.maxpages":          "NETREFER_MAX_PAGES",
	"netrefer.consumerbatchsize": "NETREFER_CONSUMER_BATCH_SIZE",
	"netrefer.timeout":           "NETREFER_TIMEOUT",
	"netrefer.tokenleeway":       "NETREFER_TOKEN_LEEWAY",

	"cors.alloworigins": "CORS_ALLOW_ORIGINS",

	"ratelimit.enabled":  "RATE_LIMIT_ENABLED",
	"ratelimit.requests": "RATE_LIMIT_REQUESTS",
	"ratelimit.window":   "RATE_LIMIT_WINDOW",
}

func bindEnvVariables(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// splitList flattens comma separated entries, which is how list values
// arrive from the environment.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
