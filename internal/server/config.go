package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/rent-finance/internal/config"
	"github.com/iwvelando/rent-finance/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for rent-finance-server.
type Config struct {
	Address           string               `yaml:"address"`
	MaxUploadSize     string               `yaml:"maxUploadSize"`
	ReadHeaderTimeout time.Duration        `yaml:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration        `yaml:"shutdownTimeout"`
	Logging           config.LoggingConfig `yaml:"logging"`
	uploadSizeBytes   int64
}

// sizeUnits maps upper-cased size suffixes to their byte multipliers.
var sizeUnits = map[string]int64{
	"": 1, "B": 1,
	"K": 1 << 10, "KB": 1 << 10,
	"M": 1 << 20, "MB": 1 << 20,
	"G": 1 << 30, "GB": 1 << 30,
}

// LoadConfig reads the server configuration at path. A missing file or an
// empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadSizeBytes is the parsed MaxUploadSize.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

func (c *Config) applyDefaults() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size
	c.MaxUploadSize = strconv.FormatInt(size, 10)
	return nil
}

// ParseSize converts sizes such as "256K" or "10MB" to bytes. Units are
// binary and case-insensitive; an empty value is the default upload size.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	number := strings.TrimRightFunc(trimmed, func(r rune) bool { return !unicode.IsDigit(r) })
	unit := strings.TrimSpace(trimmed[len(number):])
	if number == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unit)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(number), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}
	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n * multiplier, nil
}
