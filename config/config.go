package config

import (
	"errors"
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address" json:"address"`
	Environment string `mapstructure:"environment" json:"environment"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level" json:"level"`
	AddSource bool   `mapstructure:"add_source" json:"add_source"`
}

// ClientConfig configures the rest client used for probes.
type ClientConfig struct {
	Timeout         string `mapstructure:"timeout" json:"timeout"`
	BodySampleLimit int    `mapstructure:"body_sample_limit" json:"body_sample_limit"`
	UserAgent       string `mapstructure:"user_agent" json:"user_agent"`
}

type CircuitBreakerConfig struct {
	Threshold    int    `mapstructure:"threshold" json:"threshold"`
	ResetTimeout string `mapstructure:"reset_timeout" json:"reset_timeout"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval" json:"interval"`
	Path     string `mapstructure:"path" json:"path"`
}

type EndpointConfig struct {
	Name string `mapstructure:"name" json:"name"`
	URL  string `mapstructure:"url" json:"url"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server" json:"server"`
	Logging        LoggingConfig        `mapstructure:"logging" json:"logging"`
	Client         ClientConfig         `mapstructure:"client" json:"client"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker" json:"circuit_breaker"`
	HealthCheck    HealthCheckConfig    `mapstructure:"health_check" json:"health_check"`
	Endpoints      []EndpointConfig     `mapstructure:"endpoints" json:"endpoints"`
}

// Load reads the configuration from file, or from config.yaml in ./config or
// the working directory when file is empty. Environment variables override
// both, with dots replaced by underscores (SERVER_ADDRESS).
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.add_source", false)
	v.SetDefault("client.timeout", "5s")
	v.SetDefault("client.body_sample_limit", 512)
	v.SetDefault("client.user_agent", "response-router-monitor")
	v.SetDefault("circuit_breaker.threshold", 5)
	v.SetDefault("circuit_breaker.reset_timeout", "30s")
	v.SetDefault("health_check.interval", "10s")
	v.SetDefault("health_check.path", "/health")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.Any("err", err))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.Any("err", err))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server, validation.By(func(value any) error {
			sc, _ := value.(ServerConfig)
			return validation.ValidateStruct(&sc,
				validation.Field(&sc.Environment,
					validation.Required,
					validation.In(EnvDev, EnvStaging, EnvProd),
				),
				validation.Field(&sc.Address,
					validation.Required,
					validation.By(validateHostPort),
				),
			)
		})),
		validation.Field(&c.Logging, validation.By(func(value any) error {
			lc, _ := value.(LoggingConfig)
			return validation.ValidateStruct(&lc,
				validation.Field(&lc.Level,
					validation.Required,
					validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
				),
			)
		})),
		validation.Field(&c.Client, validation.By(func(value any) error {
			cc, _ := value.(ClientConfig)
			return validation.ValidateStruct(&cc,
				validation.Field(&cc.Timeout, validation.Required, validation.By(validateDuration)),
				validation.Field(&cc.BodySampleLimit, validation.Min(0)),
			)
		})),
		validation.Field(&c.CircuitBreaker, validation.By(func(value any) error {
			bc, _ := value.(CircuitBreakerConfig)
			return validation.ValidateStruct(&bc,
				validation.Field(&bc.Threshold, validation.Required, validation.Min(1)),
				validation.Field(&bc.ResetTimeout, validation.Required, validation.By(validateDuration)),
			)
		})),
		validation.Field(&c.HealthCheck, validation.By(func(value any) error {
			hc, _ := value.(HealthCheckConfig)
			return validation.ValidateStruct(&hc,
				validation.Field(&hc.Interval, validation.Required, validation.By(validateDuration)),
				validation.Field(&hc.Path, validation.Required, validation.Match(pathPattern)),
			)
		})),
		validation.Field(&c.Endpoints,
			validation.Required,
			validation.Length(1, 0),
			validation.Each(validation.By(validateEndpointConfig)),
		),
	)
}

// Durations returns the parsed client timeout, breaker reset timeout and
// health check interval. It assumes a validated Config.
func (c *Config) Durations() (timeout, reset, interval time.Duration) {
	timeout, _ = time.ParseDuration(c.Client.Timeout)
	reset, _ = time.ParseDuration(c.CircuitBreaker.ResetTimeout)
	interval, _ = time.ParseDuration(c.HealthCheck.Interval)
	return timeout, reset, interval
}

var pathPattern = regexp.MustCompile(`^/[^\s?#]*$`)

func validateHostPort(value any) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}
	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}
	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}
	return nil
}

func validateDuration(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}
	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be positive")
	}
	return nil
}

func validateEndpointConfig(value any) error {
	ec, ok := value.(EndpointConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be an EndpointConfig")
	}

	if err := validation.Validate(ec.Name, validation.Length(0, 64), is.PrintableASCII); err != nil {
		return err
	}
	if err := validation.Validate(ec.URL, validation.Required); err != nil {
		return err
	}

	parsed, err := url.Parse(ec.URL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}
