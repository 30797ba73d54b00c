// Package config loads service configuration from dirtify.yaml, DIRTIFY_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configBaseName   = "dirtify"
	configFolderPath = "."

	envPrefix = "DIRTIFY"
)

// Config keys. Flags bound with viper.BindPFlag use the same names.
const (
	SpannerProjectKey      = "spanner.project"
	SpannerInstanceKey     = "spanner.instance"
	SpannerDatabaseKey     = "spanner.database"
	SpannerEmulatorHostKey = "spanner.emulator_host"

	GRPCPortKey       = "grpc.port"
	GRPCReflectionKey = "grpc.reflection"

	HTTPEnabledKey = "http.enabled"
	HTTPPortKey    = "http.port"

	ShutdownTimeoutKey = "shutdown_timeout"

	LogFilenameKey   = "log.filename"
	LogLevelKey      = "log.level"
	LogFormatKey     = "log.format"
	LogMaxSizeKey    = "log.max_size"
	LogMaxBackupsKey = "log.max_backups"
	LogMaxAgeKey     = "log.max_age"
	LogCompressKey   = "log.compress"
)

const (
	defaultSpannerProject  = "test-project"
	defaultSpannerInstance = "dev-instance"
	defaultSpannerDatabase = "dirtify-db"

	defaultGRPCPort        = 9090
	defaultHTTPPort        = 8080
	defaultShutdownTimeout = 15 * time.Second

	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Spanner         SpannerConfig `mapstructure:"spanner" yaml:"spanner"`
	GRPC            GRPCConfig    `mapstructure:"grpc" yaml:"grpc"`
	HTTP            HTTPConfig    `mapstructure:"http" yaml:"http"`
	Log             LogConfig     `mapstructure:"log" yaml:"log"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SpannerConfig names the database. A non-empty EmulatorHost points the client
// at a local emulator without credentials.
type SpannerConfig struct {
	Project      string `mapstructure:"project" yaml:"project"`
	Instance     string `mapstructure:"instance" yaml:"instance"`
	Database     string `mapstructure:"database" yaml:"database"`
	EmulatorHost string `mapstructure:"emulator_host" yaml:"emulator_host"`
}

// InstancePath returns projects/<p>/instances/<i>.
func (s SpannerConfig) InstancePath() string {
	return fmt.Sprintf("projects/%s/instances/%s", s.Project, s.Instance)
}

// DatabasePath returns projects/<p>/instances/<i>/databases/<d>.
func (s SpannerConfig) DatabasePath() string {
	return fmt.Sprintf("%s/databases/%s", s.InstancePath(), s.Database)
}

type GRPCConfig struct {
	Port       int  `mapstructure:"port" yaml:"port"`
	Reflection bool `mapstructure:"reflection" yaml:"reflection"`
}

type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// LogConfig configures the slog logger. An empty Filename logs to stderr;
// otherwise the file is rotated by size.
type LogConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// NewViper returns a viper instance with defaults, the config search path and
// DIRTIFY_ environment binding (spanner.database -> DIRTIFY_SPANNER_DATABASE).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configFolderPath)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(SpannerProjectKey, defaultSpannerProject)
	v.SetDefault(SpannerInstanceKey, defaultSpannerInstance)
	v.SetDefault(SpannerDatabaseKey, defaultSpannerDatabase)
	v.SetDefault(SpannerEmulatorHostKey, "")

	v.SetDefault(GRPCPortKey, defaultGRPCPort)
	v.SetDefault(GRPCReflectionKey, true)
	v.SetDefault(HTTPEnabledKey, true)
	v.SetDefault(HTTPPortKey, defaultHTTPPort)
	v.SetDefault(ShutdownTimeoutKey, defaultShutdownTimeout)

	v.SetDefault(LogFilenameKey, "")
	v.SetDefault(LogLevelKey, defaultLogLevel)
	v.SetDefault(LogFormatKey, defaultLogFormat)
	v.SetDefault(LogMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(LogMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(LogMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(LogCompressKey, true)

	return v
}

// Load reads configFile (or dirtify.yaml from the working directory when
// empty), decodes and validates it. A missing default file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the decoded configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Spanner.Project == "" || c.Spanner.Instance == "" || c.Spanner.Database == "" {
		errs = append(errs, fmt.Errorf("%w: spanner project, instance and database are required", ErrInvalidConfig))
	}
	if !validPort(c.GRPC.Port) {
		errs = append(errs, fmt.Errorf("%w: grpc.port %d out of range", ErrInvalidConfig, c.GRPC.Port))
	}
	if c.HTTP.Enabled && !validPort(c.HTTP.Port) {
		errs = append(errs, fmt.Errorf("%w: http.port %d out of range", ErrInvalidConfig, c.HTTP.Port))
	}
	if c.HTTP.Enabled && c.HTTP.Port == c.GRPC.Port {
		errs = append(errs, fmt.Errorf("%w: http.port and grpc.port must differ", ErrInvalidConfig))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig))
	}
	if _, ok := ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("%w: unknown log.level %q", ErrInvalidConfig, c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidConfig, c.Log.Format))
	}

	return errors.Join(errs...)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseLevel parses debug, info, warn(ing), error or a numeric slog level
// such as -4.
func ParseLevel(value string) (slog.Level, bool) {
	level := strings.ToLower(strings.TrimSpace(value))

	switch level {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}

	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n), true
	}

	return slog.LevelInfo, false
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
