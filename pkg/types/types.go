package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Charset is the bech32 data alphabet; a prefix may only use these characters.
const Charset = "023456789acdefghjklmnpqrstuvwxyz"

// NpubPrefix precedes every encoded public key.
const NpubPrefix = "npub1"

var (
	ErrEmptyPrefix = errors.New("prefix cannot be empty")
	ErrInvalidChar = errors.New("invalid character in prefix")
)

// ValidationError describes a prefix rejected before any search work starts.
type ValidationError struct {
	Field  string // "prefix" or "additional"
	Prefix string
	Char   rune
	Err    error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrInvalidChar) {
		return fmt.Sprintf("%s %q: invalid character '%c', allowed characters are: %s",
			e.Field, e.Prefix, e.Char, Charset)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidatePrefix checks that prefix is non-empty and uses only Charset.
func ValidatePrefix(field, prefix string) error {
	if prefix == "" {
		return &ValidationError{Field: field, Err: ErrEmptyPrefix}
	}
	for _, c := range prefix {
		if !strings.ContainsRune(Charset, c) {
			return &ValidationError{Field: field, Prefix: prefix, Char: c, Err: ErrInvalidChar}
		}
	}
	return nil
}

// SearchRequest is the immutable input of a vanity search
type SearchRequest struct {
	Prefix     string
	Additional []string
	Workers    int
}

// Validate checks the primary prefix and the worker count. Additional
// prefixes only produce informational matches, so one that can never match
// is accepted; the CLI rejects those before building a request.
func (r SearchRequest) Validate() error {
	if err := ValidatePrefix("prefix", r.Prefix); err != nil {
		return err
	}
	if r.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", r.Workers)
	}
	return nil
}

// SearchResult is the matching keypair in its encoded forms
type SearchResult struct {
	Npub     string
	Nsec     string
	Attempts int64
	Duration time.Duration
}

// Match is an informational hit on one of the additional prefixes.
type Match struct {
	Prefix string
	Npub   string
	Nsec   string
}

// WorkerConfig contains configuration for individual workers
type WorkerConfig struct {
	Prefix     string
	Additional []string

	// Full string prefixes including "npub1", precomputed once per search.
	Target            string
	AdditionalTargets []string
}

// NewWorkerConfig derives the match targets from a request.
func NewWorkerConfig(req SearchRequest) *WorkerConfig {
	targets := make([]string, len(req.Additional))
	for i, p := range req.Additional {
		targets[i] = NpubPrefix + p
	}
	return &WorkerConfig{
		Prefix:            req.Prefix,
		Additional:        req.Additional,
		Target:            NpubPrefix + req.Prefix,
		AdditionalTargets: targets,
	}
}

// WorkerResult represents the outcome of one generate-encode-test cycle
type WorkerResult struct {
	Npub    string
	Nsec    string
	IsMatch bool

	// Additional prefixes this npub starts with, in request order.
	AdditionalHits []string
}
