// Package config parses the client's CLI configuration: `key=value`
// pairs, plus a JSON credentials-file fallback. Load applies defaults,
// parses arguments over them, and validates the result, returning
// wrapped errors suitable for a non-zero process exit.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// defaultFineCap is the fine-accumulator cap at which a non-primary
// worker tears down and reconnects; it is not exposed on the command
// line, only as a compiled default. The first two workers get their own
// effectively unbounded cap (see supervisor.New) regardless of this
// value.
const defaultFineCap = 500

// Config holds everything the supervisor and its workers need, parsed
// from CLI `key=value` arguments.
type Config struct {
	Host string
	Port int
	Path string

	UseMask bool

	Channel  string
	InstType string
	InstID   string

	WorkerCount int  // CLI key is `logLevel` — an inherited naming quirk, not a typo.
	Wait        bool // true selects blocking reads, false selects returnOnNoData=true.

	LogEnabled bool
	LogLevel   string
	LogFormat  string

	APIKey   string
	Sign     string
	CredFile string

	HealthAddr string

	FineCap uint64
}

// defaults returns a Config with every documented default applied.
func defaults() Config {
	return Config{
		Host:        "127.0.0.1",
		Port:        9999,
		Path:        "ws",
		UseMask:     true,
		Channel:     "orders",
		InstType:    "ANY",
		WorkerCount: 1,
		Wait:        true,
		LogEnabled:  true,
		LogLevel:    "info",
		LogFormat:   "json",
		CredFile:    "./credentials.json",
		HealthAddr:  "127.0.0.1:6060",
		FineCap:     defaultFineCap,
	}
}

// Load parses args as `key=value` pairs, applies them over the
// defaults, loads credentials if not given on the command line, and
// validates the result. It returns a non-nil error (and a non-zero
// process exit code) on any parse or validation failure.
func Load(args []string) (*Config, error) {
	cfg := defaults()

	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("malformed argument %q: expected key=value", arg)
		}
		if err := cfg.set(key, val); err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg, err)
		}
	}

	if cfg.APIKey == "" || cfg.Sign == "" {
		if err := cfg.loadCredentials(); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) set(key, val string) error {
	switch key {
	case "host":
		c.Host = val
	case "port":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid port: %w", err)
		}
		c.Port = n
	case "path":
		c.Path = val
	case "mask":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid mask: %w", err)
		}
		c.UseMask = b
	case "channel":
		c.Channel = val
	case "instType":
		c.InstType = val
	case "instId":
		c.InstID = val
	case "logLevel": // worker count, not log verbosity.
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid logLevel (worker count): %w", err)
		}
		c.WorkerCount = n
	case "wait":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid wait: %w", err)
		}
		c.Wait = b
	case "log":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid log: %w", err)
		}
		c.LogEnabled = b
	case "logFormat":
		c.LogFormat = val
	case "apiKey":
		c.APIKey = val
	case "sign":
		c.Sign = val
	case "credFile":
		c.CredFile = val
	case "healthAddr":
		c.HealthAddr = val
	default:
		return fmt.Errorf("unrecognized key")
	}
	return nil
}

type credentialsFile struct {
	APIKey string `json:"apiKey"`
	Sign   string `json:"sign"`
}

// loadCredentials reads apiKey/sign from CredFile using goccy/go-json;
// this path never touches the hot receive/transmit loop.
func (c *Config) loadCredentials() error {
	data, err := os.ReadFile(c.CredFile)
	if err != nil {
		return fmt.Errorf("reading credentials file %s: %w", c.CredFile, err)
	}
	var cf credentialsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("parsing credentials file %s: %w", c.CredFile, err)
	}
	if c.APIKey == "" {
		c.APIKey = cf.APIKey
	}
	if c.Sign == "" {
		c.Sign = cf.Sign
	}
	return nil
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("logLevel (worker count) must be at least 1")
	}
	if c.APIKey == "" || c.Sign == "" {
		return fmt.Errorf("apiKey and sign are required, via arguments or %s", c.CredFile)
	}
	return nil
}
