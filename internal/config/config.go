package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/mattn/go-isatty"

	"github.com/vango-dev/statetree/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "statetree.json"

	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat picks text on a terminal and JSON otherwise.
	DefaultLogFormat = "auto"

	// DefaultInspectAddress is the default inspector listen address.
	DefaultInspectAddress = "localhost:7070"

	// DefaultStreamBuffer is the default per-client splice stream queue.
	DefaultStreamBuffer = 64

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "statetree"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "statetree"
)

// Config represents the complete statetree.json configuration.
type Config struct {
	// Log contains logging configuration.
	Log LogConfig `json:"log"`

	// Inspect contains inspector server configuration.
	Inspect InspectConfig `json:"inspect"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text, json or auto.
	Format string `json:"format,omitempty"`
}

// InspectConfig contains inspector server settings.
type InspectConfig struct {
	// Address is the host:port to listen on.
	Address string `json:"address,omitempty"`

	// StreamBuffer is the number of frames queued per stream client.
	StreamBuffer int `json:"streamBuffer,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the tracker metrics and serves /metrics.
	Enabled bool `json:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled records spans for computation runs and dispatches.
	Enabled bool `json:"enabled"`

	// TracerName is the instrumentation name of the tracer.
	TracerName string `json:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Inspect: InspectConfig{
			Address:      DefaultInspectAddress,
			StreamBuffer: DefaultStreamBuffer,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			TracerName: DefaultTracerName,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for statetree.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No config file at " + path).
				WithSuggestion("Run 'statetree config init' to write the defaults, or drop --config")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Resolve loads the configuration used by the command line. An explicit
// path must exist. Without one, the nearest statetree.json at or above the
// working directory is used, falling back to defaults.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return New(), nil
	}
	root, err := FindConfigDir(wd)
	if err != nil {
		return New(), nil
	}
	return Load(root)
}

// ApplyOverrides merges each override into the configuration, in order.
//
// An override is either a JSON merge patch (RFC 7386) such as
// {"log":{"level":"debug"}}, or a dotted assignment such as
// log.level=debug. Assigned values are decoded as JSON when possible and
// used as strings otherwise.
func (c *Config) ApplyOverrides(overrides ...string) error {
	if len(overrides) == 0 {
		return nil
	}

	doc, err := json.Marshal(c)
	if err != nil {
		return errors.New("E124").Wrap(err)
	}

	for _, o := range overrides {
		patch, err := overridePatch(o)
		if err != nil {
			return errors.New("E124").
				WithDetail("Cannot use override " + o + ": " + err.Error()).
				WithExample(`--set log.level=debug` + "\n" + `--set '{"metrics":{"enabled":false}}'`)
		}
		doc, err = jsonpatch.MergePatch(doc, patch)
		if err != nil {
			return errors.New("E124").Wrap(err).
				WithDetail("Cannot apply override " + o)
		}
	}

	next := New()
	if err := json.Unmarshal(doc, next); err != nil {
		return errors.New("E124").Wrap(err).
			WithDetail("Overrides produced an invalid configuration: " + err.Error())
	}
	next.configPath = c.configPath
	next.applyDefaults()
	*c = *next
	return nil
}

// overridePatch turns one override into a merge patch document.
func overridePatch(o string) ([]byte, error) {
	o = strings.TrimSpace(o)
	if strings.HasPrefix(o, "{") {
		var probe map[string]any
		if err := json.Unmarshal([]byte(o), &probe); err != nil {
			return nil, err
		}
		return []byte(o), nil
	}

	key, raw, ok := strings.Cut(o, "=")
	if !ok || key == "" {
		return nil, errors.Newf(errors.CategoryConfig, "expected key=value or a JSON object")
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	path := strings.Split(key, ".")
	var patch any = value
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == "" {
			return nil, errors.Newf(errors.CategoryConfig, "empty key segment in %q", key)
		}
		patch = map[string]any{path[i]: patch}
	}
	return json.Marshal(patch)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Inspect.Address == "" {
		c.Inspect.Address = DefaultInspectAddress
	}
	if c.Inspect.StreamBuffer == 0 {
		c.Inspect.StreamBuffer = DefaultStreamBuffer
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return errors.New("E121").
			WithDetail("log.level " + c.Log.Level + " is not one of debug, info, warn, error")
	}

	switch c.Log.Format {
	case "text", "json", "auto":
	default:
		return errors.New("E122").
			WithDetail("log.format " + c.Log.Format + " is not one of text, json, auto")
	}

	if _, _, err := net.SplitHostPort(c.Inspect.Address); err != nil {
		return errors.New("E123").Wrap(err).
			WithSuggestion(`Use a host:port pair such as "localhost:7070" or ":7070"`)
	}
	if c.Inspect.StreamBuffer < 0 {
		return errors.New("E125").
			WithDetail("inspect.streamBuffer must not be negative")
	}

	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Logger builds a logger writing to w according to the log settings.
// An invalid level falls back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.useJSON(w) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) useJSON(w io.Writer) bool {
	switch c.Log.Format {
	case "json":
		return true
	case "text":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindConfigDir walks up directories to find one containing statetree.json.
func FindConfigDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
