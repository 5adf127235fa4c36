// Package config loads examide settings from (in increasing priority) built-in
// defaults, an optional examide.yaml, an optional .env file and EXAMIDE_*
// environment variables.
//
// EXAMPLE examide.yaml:
//
//	server:
//	  port: 8080
//	execution:
//	  timeout: 10s
//	  max_output: 4MiB
//	  languages: [python, java]
//	toolchains:
//	  python:
//	    run: [python, -c, "{code}"]
//	auth:
//	  jwt_secret: change-me-to-something-long
//
// Nested keys map to env vars with dots replaced by underscores, e.g.
// EXAMIDE_EXECUTION_TIMEOUT=5s or EXAMIDE_EXECUTION_LANGUAGES=python,cpp.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/exam-ide/internal/executor"
	"github.com/sakif/exam-ide/internal/executor/process"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "EXAMIDE"

type ServerConfig struct {
	Port          int `mapstructure:"port"`
	MaxCodeLength int `mapstructure:"max_code_length"`
}

type ExecutionConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxOutput caps each captured stream, e.g. "4MiB", "512kB" or "65536".
	MaxOutput string   `mapstructure:"max_output"`
	WorkDir   string   `mapstructure:"work_dir"`
	Languages []string `mapstructure:"languages"`
}

// MaxOutputBytes parses MaxOutput.
func (e ExecutionConfig) MaxOutputBytes() (int64, error) {
	n, err := humanize.ParseBytes(e.MaxOutput)
	if err != nil {
		return 0, fmt.Errorf("config: execution.max_output: %w", err)
	}
	if n == 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("config: execution.max_output %q out of range", e.MaxOutput)
	}
	return int64(n), nil
}

// ToolchainConfig overrides the command templates of one language. Empty
// fields keep the built-in command.
type ToolchainConfig struct {
	Compile []string `mapstructure:"compile"`
	Run     []string `mapstructure:"run"`
}

type AuthConfig struct {
	// JWTSecret enables the participant token gate when non-empty.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	Subject        string        `mapstructure:"subject"`
	Queue          string        `mapstructure:"queue"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	Execution  ExecutionConfig            `mapstructure:"execution"`
	Toolchains map[string]ToolchainConfig `mapstructure:"toolchains"`
	Auth       AuthConfig                 `mapstructure:"auth"`
	NATS       NATSConfig                 `mapstructure:"nats"`
	Log        LogConfig                  `mapstructure:"log"`
}

// Load reads the configuration. With an empty path it looks for examide.yaml
// in "." and "$HOME/.examide" and runs on defaults when there is none; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("examide")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.examide")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key, which also makes AutomaticEnv see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_code_length", 100000)
	v.SetDefault("execution.timeout", 10*time.Second)
	v.SetDefault("execution.max_output", "4MiB")
	v.SetDefault("execution.work_dir", "")
	v.SetDefault("execution.languages", []string{})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject", "examide.execute")
	v.SetDefault("nats.queue", "examide-workers")
	v.SetDefault("nats.request_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxCodeLength <= 0 {
		return fmt.Errorf("config: server.max_code_length must be positive")
	}
	if c.Execution.Timeout <= 0 {
		return fmt.Errorf("config: execution.timeout must be positive, got %s", c.Execution.Timeout)
	}
	if _, err := c.Execution.MaxOutputBytes(); err != nil {
		return err
	}
	if _, err := c.languages(); err != nil {
		return err
	}
	for name := range c.Toolchains {
		if !executor.NormalizeLanguage(name).Known() {
			return fmt.Errorf("config: toolchains.%s is not a known language", name)
		}
	}
	if c.NATS.RequestTimeout <= 0 {
		return fmt.Errorf("config: nats.request_timeout must be positive")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// languages normalizes and dedupes execution.languages.
func (c *Config) languages() ([]executor.Language, error) {
	seen := mapset.NewThreadUnsafeSet[executor.Language]()
	var out []executor.Language
	for _, tag := range c.Execution.Languages {
		lang := executor.NormalizeLanguage(tag)
		if !lang.Known() {
			return nil, fmt.Errorf("config: execution.languages: unknown language %q", tag)
		}
		if seen.Add(lang) {
			out = append(out, lang)
		}
	}
	return out, nil
}

// ProcessConfig builds the engine configuration: built-in toolchains with the
// configured overrides applied.
func (c *Config) ProcessConfig() (process.Config, error) {
	languages, err := c.languages()
	if err != nil {
		return process.Config{}, err
	}
	maxOutput, err := c.Execution.MaxOutputBytes()
	if err != nil {
		return process.Config{}, err
	}

	toolchains := process.DefaultToolchains()
	for name, override := range c.Toolchains {
		lang := executor.NormalizeLanguage(name)
		tc, ok := toolchains[lang]
		if !ok {
			return process.Config{}, fmt.Errorf("config: toolchains.%s is not a known language", name)
		}
		if len(override.Compile) > 0 {
			if tc.Interpreted() {
				return process.Config{}, fmt.Errorf("config: toolchains.%s: %s is interpreted and has no compile step", name, lang)
			}
			tc.Compile = override.Compile
		}
		if len(override.Run) > 0 {
			tc.Run = override.Run
		}
		toolchains[lang] = tc
	}

	return process.Config{
		Timeout:        c.Execution.Timeout,
		MaxOutputBytes: maxOutput,
		WorkDir:        c.Execution.WorkDir,
		Languages:      languages,
		Toolchains:     toolchains,
	}, nil
}
