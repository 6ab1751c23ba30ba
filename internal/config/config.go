// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aibor/containit/internal/identity"
	"github.com/aibor/containit/supervisor"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the config file used if no other is given. It is
	// optional.
	DefaultPath = "/etc/containit.yaml"

	// DefaultTaskDir is the directory init tasks are read from by default.
	DefaultTaskDir = "/usr/local/bin/start.d"

	// PathVar is the environment variable that may name a config file.
	PathVar = "CONTAINIT_CONFIG"

	envPrefix = "CONTAINIT_"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalid is returned if the configuration has invalid values.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete configuration of the init process.
type Config struct {
	// TaskDir is the directory the init tasks are read from.
	TaskDir string `yaml:"taskDir"`

	// TaskTimeout limits the run time of each init task. Zero means no
	// limit.
	TaskTimeout time.Duration `yaml:"taskTimeout"`

	// User the service is run as. See [Config.ServiceUser] for the default.
	User       string `yaml:"user"`
	PasswdFile string `yaml:"passwdFile"`
	GroupFile  string `yaml:"groupFile"`

	// Signals are the names of the signals forwarded to the foreground
	// process.
	Signals []string `yaml:"signals"`

	// ProcessGroup runs each child in its own process group.
	ProcessGroup bool `yaml:"processGroup"`

	// ShutdownGrace is the time remaining processes have to exit after
	// SIGTERM before they are killed.
	ShutdownGrace time.Duration `yaml:"shutdownGrace"`

	// Env is set before init tasks run.
	Env map[string]string `yaml:"env"`

	// Interfaces are brought up before init tasks run.
	Interfaces []string `yaml:"interfaces"`

	Logging Logging `yaml:"logging"`
}

// Logging configures the log output.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	signals := []string{}
	for _, sig := range supervisor.DefaultSignals() {
		signals = append(signals, unix.SignalName(sig))
	}

	return &Config{
		TaskDir:       DefaultTaskDir,
		PasswdFile:    identity.DefaultPasswdPath,
		GroupFile:     identity.DefaultGroupPath,
		Signals:       signals,
		ProcessGroup:  true,
		ShutdownGrace: supervisor.DefaultShutdownGrace,
		Env:           map[string]string{},
		Logging: Logging{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// ServiceUser returns the user specification the service is run as, if the
// init process runs with the given user ID.
//
// If no user is configured, root hands over to the IDs of the default
// [identity.Identity]. Any other user keeps its identity. Running the service
// as root requires configuring "root" or "0" explicitly.
func (c *Config) ServiceUser(uid int) string {
	if c.User != "" || uid != 0 {
		return c.User
	}

	id := identity.Default()

	return strconv.Itoa(id.UID) + ":" + strconv.Itoa(id.GID)
}

// Load returns the configuration from defaults, the given file and the given
// environment.
//
// If path is empty, [PathVar] is consulted. If that is not set either, the
// optional [DefaultPath] is used. Explicitly named files must exist.
func Load(path string, environ []string) (*Config, error) {
	env := envMap(environ)
	cfg := Default()

	mustExist := true

	if path == "" {
		path = env[PathVar]
	}

	if path == "" {
		path = DefaultPath
		mustExist = false
	}

	if err := cfg.LoadFile(path, mustExist); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads the YAML file at the given path into the config. Unknown
// fields are an error.
func (c *Config) LoadFile(path string, mustExist bool) error {
	file, err := os.Open(path)
	if err != nil {
		if !mustExist && errors.Is(err, fs.ErrNotExist) {
			slog.Debug("No config file", slog.String("path", path))
			return nil
		}

		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	slog.Debug("Loaded config file", slog.String("path", path))

	return nil
}

// ApplyEnv overrides config values with the CONTAINIT_* variables of the
// given environment.
func (c *Config) ApplyEnv(env map[string]string) error {
	var errs []error

	lookup := func(name string) (string, bool) {
		value, exists := env[envPrefix+name]
		return value, exists && value != ""
	}

	if value, ok := lookup("TASK_DIR"); ok {
		c.TaskDir = value
	}

	if value, ok := lookup("TASK_TIMEOUT"); ok {
		errs = append(errs, parseEnv("TASK_TIMEOUT", value, time.ParseDuration, &c.TaskTimeout))
	}

	if value, ok := lookup("USER"); ok {
		c.User = value
	}

	if value, ok := lookup("SIGNALS"); ok {
		c.Signals = strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}

	if value, ok := lookup("PROCESS_GROUP"); ok {
		errs = append(errs, parseEnv("PROCESS_GROUP", value, strconv.ParseBool, &c.ProcessGroup))
	}

	if value, ok := lookup("SHUTDOWN_GRACE"); ok {
		errs = append(errs, parseEnv("SHUTDOWN_GRACE", value, time.ParseDuration, &c.ShutdownGrace))
	}

	if value, ok := lookup("LOG_LEVEL"); ok {
		c.Logging.Level = value
	}

	if value, ok := lookup("LOG_FORMAT"); ok {
		c.Logging.Format = value
	}

	return errors.Join(errs...)
}

func parseEnv[T any](name, value string, parse func(string) (T, error), dest *T) error {
	parsed, err := parse(value)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %w", ErrInvalid, envPrefix, name, err)
	}

	*dest = parsed

	return nil
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if c.TaskDir == "" {
		return fmt.Errorf("%w: empty task directory", ErrInvalid)
	}

	if c.TaskTimeout < 0 {
		return fmt.Errorf("%w: negative task timeout", ErrInvalid)
	}

	if c.ShutdownGrace < 0 {
		return fmt.Errorf("%w: negative shutdown grace period", ErrInvalid)
	}

	if _, err := supervisor.ParseSignals(c.Signals); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Logging.Format)
	}

	for key := range c.Env {
		if key == "" || strings.ContainsAny(key, "=\x00") {
			return fmt.Errorf("%w: env var name %q", ErrInvalid, key)
		}
	}

	return nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return level, fmt.Errorf("%w: log level: %w", ErrInvalid, err)
	}

	return level, nil
}

// Supervisor returns the [supervisor.Config] for the config.
func (c *Config) Supervisor() (supervisor.Config, error) {
	signals, err := supervisor.ParseSignals(c.Signals)
	if err != nil {
		return supervisor.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return supervisor.Config{
		Signals:       signals,
		ProcessGroup:  c.ProcessGroup,
		ShutdownGrace: c.ShutdownGrace,
	}, nil
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))

	for _, entry := range environ {
		key, value, _ := strings.Cut(entry, "=")
		env[key] = value
	}

	return env
}
