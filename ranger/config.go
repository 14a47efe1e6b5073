package ranger

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/securecookie"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/router"
	"gopkg.in/yaml.v3"
)

const (
	// Config file
	configFileEnvVar = "CONFIG_FILE"

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar  = "LOG_LEVEL"
	logJSONEnvVar   = "LOG_JSON"
	sentryDsnEnvVar = "SENTRY_DSN"

	// Web server defaults
	DefaultHost               = "localhost"
	hostEnvVar                = "HOST"
	DefaultPort               = ":3000"
	portEnvVar                = "PORT"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second
	shutdownTimeoutEnvVar     = "SHUTDOWN_TIMEOUT"
	DefaultShutdownTimeout    = 5 * time.Second

	// Endpoint defaults
	mountPathEnvVar    = "MOUNT_PATH"
	DefaultMountPath   = "/"
	healthPathEnvVar   = "HEALTH_PATH"
	DefaultHealthPath  = "/healthz"
	metricsPathEnvVar  = "METRICS_PATH"
	DefaultMetricsPath = "/metrics"
	routeParamEnvVar   = "ROUTE_PARAM"

	// Boundary defaults
	corsOriginEnvVar     = "CORS_ORIGIN"
	errMsgEnvVar         = "ERROR_MESSAGE"
	rateLimitEnvVar      = "RATE_LIMIT"
	rateBurstEnvVar      = "RATE_BURST"
	maxMemoryEnvVar      = "MAX_MEMORY"
	maxFileSizeEnvVar    = "MAX_FILE_SIZE"
	maxBodySizeEnvVar    = "MAX_BODY_SIZE"
	uploadDirEnvVar      = "UPLOAD_DIR"
	cookieHashKeyEnvVar  = "COOKIE_HASH_KEY"
	cookieBlockKeyEnvVar = "COOKIE_BLOCK_KEY"
)

// A Config holds everything a Ranger reads from its surroundings.
//
// Field tags name the keys of the YAML file CONFIG_FILE points at.
type Config struct {
	Env       trailhead.Environment `yaml:"environment" validate:"oneof=DEVELOPMENT PRODUCTION STAGING TESTING"`
	LogLevel  string                `yaml:"logLevel"`
	LogJSON   bool                  `yaml:"logJson"`
	SentryDSN string                `yaml:"sentryDsn" validate:"omitempty,url"`

	Host            string        `yaml:"host"`
	Port            string        `yaml:"port" validate:"required"`
	ReadTimeout     time.Duration `yaml:"readTimeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`

	MountPath   string `yaml:"mountPath" validate:"required,startswith=/"`
	HealthPath  string `yaml:"healthPath" validate:"required,startswith=/"`
	MetricsPath string `yaml:"metricsPath" validate:"omitempty,startswith=/"`
	RouteParam  string `yaml:"routeParam" validate:"required"`

	CORSOrigin     string  `yaml:"corsOrigin" validate:"omitempty,url"`
	ErrMsg         string  `yaml:"errorMessage"`
	RateLimit      float64 `yaml:"rateLimit" validate:"gte=0"`
	RateBurst      int     `yaml:"rateBurst" validate:"gte=0"`
	MaxMemory      int64   `yaml:"maxMemory" validate:"gt=0"`
	MaxFileSize    int64   `yaml:"maxFileSize" validate:"gt=0"`
	MaxBodySize    int64   `yaml:"maxBodySize" validate:"gt=0"`
	UploadDir      string  `yaml:"uploadDir"`
	CookieHashKey  string  `yaml:"cookieHashKey" validate:"omitempty,hexadecimal"`
	CookieBlockKey string  `yaml:"cookieBlockKey" validate:"omitempty,hexadecimal"`
}

// DefaultConfig is the Config LoadConfig begins from.
func DefaultConfig() Config {
	return Config{
		Env:             trailhead.Development,
		LogLevel:        "INFO",
		Host:            DefaultHost,
		Port:            DefaultPort,
		ReadTimeout:     DefaultServerReadTimeout,
		IdleTimeout:     DefaultServerIdleTimeout,
		WriteTimeout:    DefaultServerWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		MountPath:       DefaultMountPath,
		HealthPath:      DefaultHealthPath,
		MetricsPath:     DefaultMetricsPath,
		RouteParam:      router.DefaultRouteParam,
		MaxMemory:       req.DefaultMaxMemory,
		MaxFileSize:     req.DefaultMaxFileSize,
		MaxBodySize:     req.DefaultMaxBodySize,
	}
}

// LoadConfig layers configuration in this order, later layers winning:
//  1. DefaultConfig;
//  2. the YAML file named by the CONFIG_FILE environment variable, if set;
//  3. individual environment variables.
//
// The result is validated before it returns.
// Any failure returns an error wrapping [trailhead.ErrBadConfig].
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(configFileEnvVar); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s", trailhead.ErrBadConfig, err)
		}
		defer f.Close()

		if err := cfg.decodeYAML(f); err != nil {
			return cfg, err
		}
	}

	cfg = cfg.fromEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// decodeYAML overlays the YAML document in r onto cfg.
// Unknown keys are rejected.
func (cfg *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: decoding %s: %s", trailhead.ErrBadConfig, configFileEnvVar, err)
	}

	return nil
}

// fromEnv overlays the environment variables that are set onto cfg.
func (cfg Config) fromEnv() Config {
	cfg.Env = trailhead.EnvVarOrEnv(environmentEnvVar, cfg.Env)
	cfg.LogLevel = trailhead.EnvVarOrString(logLevelEnvVar, cfg.LogLevel)
	cfg.LogJSON = trailhead.EnvVarOrBool(logJSONEnvVar, cfg.LogJSON)
	cfg.SentryDSN = trailhead.EnvVarOrString(sentryDsnEnvVar, cfg.SentryDSN)

	cfg.Host = trailhead.EnvVarOrString(hostEnvVar, cfg.Host)
	cfg.Port = trailhead.EnvVarOrString(portEnvVar, cfg.Port)
	cfg.ReadTimeout = trailhead.EnvVarOrDuration(serverReadTimeoutEnvVar, cfg.ReadTimeout)
	cfg.IdleTimeout = trailhead.EnvVarOrDuration(serverIdleTimeoutEnvVar, cfg.IdleTimeout)
	cfg.WriteTimeout = trailhead.EnvVarOrDuration(serverWriteTimeoutEnvVar, cfg.WriteTimeout)
	cfg.ShutdownTimeout = trailhead.EnvVarOrDuration(shutdownTimeoutEnvVar, cfg.ShutdownTimeout)

	cfg.MountPath = trailhead.EnvVarOrString(mountPathEnvVar, cfg.MountPath)
	cfg.HealthPath = trailhead.EnvVarOrString(healthPathEnvVar, cfg.HealthPath)
	cfg.MetricsPath = trailhead.EnvVarOrString(metricsPathEnvVar, cfg.MetricsPath)
	cfg.RouteParam = trailhead.EnvVarOrString(routeParamEnvVar, cfg.RouteParam)

	cfg.CORSOrigin = trailhead.EnvVarOrString(corsOriginEnvVar, cfg.CORSOrigin)
	cfg.ErrMsg = trailhead.EnvVarOrString(errMsgEnvVar, cfg.ErrMsg)
	cfg.RateLimit = trailhead.EnvVarOrFloat(rateLimitEnvVar, cfg.RateLimit)
	cfg.RateBurst = trailhead.EnvVarOrInt(rateBurstEnvVar, cfg.RateBurst)
	cfg.MaxMemory = trailhead.EnvVarOrInt64(maxMemoryEnvVar, cfg.MaxMemory)
	cfg.MaxFileSize = trailhead.EnvVarOrInt64(maxFileSizeEnvVar, cfg.MaxFileSize)
	cfg.MaxBodySize = trailhead.EnvVarOrInt64(maxBodySizeEnvVar, cfg.MaxBodySize)
	cfg.UploadDir = trailhead.EnvVarOrString(uploadDirEnvVar, cfg.UploadDir)
	cfg.CookieHashKey = trailhead.EnvVarOrString(cookieHashKeyEnvVar, cfg.CookieHashKey)
	cfg.CookieBlockKey = trailhead.EnvVarOrString(cookieBlockKeyEnvVar, cfg.CookieBlockKey)

	return cfg
}

var configValidator = validator.New()

// Validate checks cfg, returning an error wrapping [trailhead.ErrBadConfig]
// that lists every failing field.
func (cfg Config) Validate() error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", trailhead.ErrBadConfig, err)
	}

	b := new(bytes.Buffer)
	for i, fe := range verrs {
		if i > 0 {
			b.WriteString("; ")
		}

		fmt.Fprintf(b, "%s fails %s", fe.Field(), fe.Tag())
	}

	return fmt.Errorf("%w: %s", trailhead.ErrBadConfig, b)
}

// Addr is the address the web server listens on.
// A Port without a leading colon has one added.
func (cfg Config) Addr() string {
	if cfg.Port != "" && cfg.Port[0] != ':' {
		return ":" + cfg.Port
	}

	return cfg.Port
}

// SecureCookie constructs the codec verifying signed cookies,
// or nil when no CookieHashKey is configured.
// A CookieBlockKey without a CookieHashKey is a bad config.
func (cfg Config) SecureCookie() (*securecookie.SecureCookie, error) {
	if cfg.CookieHashKey == "" {
		if cfg.CookieBlockKey != "" {
			return nil, fmt.Errorf("%w: %s requires %s", trailhead.ErrBadConfig, cookieBlockKeyEnvVar, cookieHashKeyEnvVar)
		}

		return nil, nil
	}

	hashKey, err := hex.DecodeString(cfg.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", trailhead.ErrBadConfig, cookieHashKeyEnvVar, err)
	}

	var blockKey []byte
	if cfg.CookieBlockKey != "" {
		blockKey, err = hex.DecodeString(cfg.CookieBlockKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", trailhead.ErrBadConfig, cookieBlockKeyEnvVar, err)
		}
	}

	return securecookie.New(hashKey, blockKey), nil
}

// buildOpts translates cfg into the options req.FromHTTP is called with.
func (cfg Config) buildOpts() ([]req.BuildOptFn, error) {
	opts := []req.BuildOptFn{
		req.WithMaxMemory(cfg.MaxMemory),
		req.WithMaxFileSize(cfg.MaxFileSize),
		req.WithMaxBodySize(cfg.MaxBodySize),
	}

	if cfg.UploadDir != "" {
		opts = append(opts, req.WithUploadDir(cfg.UploadDir))
	}

	sc, err := cfg.SecureCookie()
	if err != nil {
		return nil, err
	}

	if sc != nil {
		opts = append(opts, req.WithSecureCookie(sc))
	}

	return opts, nil
}
