package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yggr/vanikey/internal/crypto"
	"github.com/yggr/vanikey/pkg/types"
)

// DefaultWorkers matches the thread count of the reference front end.
const DefaultWorkers = 4

// Errors
var (
	ErrInvalidWorkers     = errors.New("--threads must be at least 1")
	ErrInvalidLogInterval = errors.New("--log-interval must be at least 1 second")
	ErrInvalidLogN        = errors.New("--log-n must be between 1 and 22")
)

// Config holds the application configuration
type Config struct {
	Workers     int
	Prefix      string
	Additional  []string
	Verbose     bool
	LogFile     string
	LogInterval int // Logging interval in seconds
	Password    string
	LogN        int // scrypt cost exponent for ncryptsec output
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:     DefaultWorkers,
		LogInterval: 5,
		LogN:        crypto.DefaultLogN,
	}
}

// Validate validates the configuration. Prefix problems are reported as
// *types.ValidationError.
func (c *Config) Validate() error {
	if err := types.ValidatePrefix("prefix", c.Prefix); err != nil {
		return err
	}
	for _, p := range c.Additional {
		if err := types.ValidatePrefix("additional", p); err != nil {
			return err
		}
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.LogInterval < 1 {
		return ErrInvalidLogInterval
	}
	if c.Password != "" && (c.LogN < 1 || c.LogN > 22) {
		return ErrInvalidLogN
	}
	return nil
}

// Request builds the search request described by the configuration
func (c *Config) Request() types.SearchRequest {
	additional := make([]string, len(c.Additional))
	copy(additional, c.Additional)
	return types.SearchRequest{
		Prefix:     c.Prefix,
		Additional: additional,
		Workers:    c.Workers,
	}
}

// GetTargetDescription returns a human-readable description of the target
func (c *Config) GetTargetDescription() string {
	desc := types.NpubPrefix + c.Prefix
	if len(c.Additional) > 0 {
		desc += fmt.Sprintf(" (also looking for: %s)", strings.Join(c.Additional, ", "))
	}
	return desc
}

// ExpectedAttempts is the mean number of keys needed to hit the primary prefix.
func (c *Config) ExpectedAttempts() float64 {
	n := 1.0
	for range c.Prefix {
		n *= float64(len(types.Charset))
	}
	return n
}
