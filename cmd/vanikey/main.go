package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vrecan/death/v3"

	"github.com/yggr/vanikey/internal/config"
	"github.com/yggr/vanikey/internal/crypto"
	logpkg "github.com/yggr/vanikey/internal/logger"
	minerpkg "github.com/yggr/vanikey/pkg/miner"
	"github.com/yggr/vanikey/pkg/types"
)

const version = "0.1.0"

var (
	cfg    = config.NewConfig()
	logger *logpkg.Logger
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "vanikey PREFIX",
		Short: "Generate Nostr vanity keys",
		Long: `Generate Nostr vanity key(s) to have your personalized Nostr npub.
The prefix is matched right after "npub1" and may only contain the characters
` + types.Charset + `. Each extra character multiplies the expected search time by 32.`,
		Args:         cobra.ExactArgs(1),
		Version:      version,
		SilenceUsage: true,
		RunE:         runMiner,
	}

	rootCmd.Flags().IntVarP(&cfg.Workers, "threads", "t", config.DefaultWorkers, "Number of threads to use")
	rootCmd.Flags().StringSliceVarP(&cfg.Additional, "additional", "a", nil, "Additional prefixes to report while searching (comma separated)")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stdout)")
	rootCmd.Flags().IntVarP(&cfg.LogInterval, "log-interval", "i", 5, "Logging interval in seconds")
	rootCmd.Flags().StringVar(&cfg.Password, "password", "", "Also print the private key encrypted with this password (ncryptsec)")
	rootCmd.Flags().IntVar(&cfg.LogN, "log-n", crypto.DefaultLogN, "scrypt cost exponent for --password")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMiner(cmd *cobra.Command, args []string) error {
	cfg.Prefix = args[0]

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) && verr.Field == "additional" {
			return fmt.Errorf("error in additional prefix %q: %w", verr.Prefix, err)
		}
		return err
	}

	// Setup logging
	if err := setupLogging(); err != nil {
		return err
	}
	logger.Printf("Searching for %s using %d threads...", cfg.GetTargetDescription(), cfg.Workers)
	logger.Debugf("Expected attempts: %.0f", cfg.ExpectedAttempts())

	miner := minerpkg.NewMiner(cfg, logger)
	miner.SetObserver(minerpkg.ObserverFunc(reportAdditional))

	// Ctrl+C stops the workers; Mine then returns ErrStopped
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM)
	go d.WaitForDeathWithFunc(func() {
		logger.Println("Received interrupt signal. Stopping workers...")
		miner.Stop()
	})

	stopSpinner := startSpinner(miner)
	result, err := miner.Mine()
	stopSpinner()

	if errors.Is(err, minerpkg.ErrStopped) {
		logger.Printf("Search stopped by user after %d attempts.", miner.Attempts())
		return nil
	}
	if err != nil {
		return err
	}

	return report(result)
}

// reportAdditional runs on worker goroutines; one Printf keeps an event's lines together.
func reportAdditional(m types.Match) {
	logger.Printf("%s\nPublic Key (npub): %s\nPrivate Key (nsec): %s\nContinuing search for primary prefix...",
		logger.Highlight(fmt.Sprintf("Found additional match for %q!", m.Prefix)), m.Npub, m.Nsec)
}

func report(result *types.SearchResult) error {
	logger.Highlightf("Found matching key!")
	logger.Printf("Public Key (npub): %s", result.Npub)
	logger.Printf("Private Key (nsec): %s", result.Nsec)

	if cfg.Password != "" {
		secret, err := crypto.DecodePrivate(result.Nsec)
		if err != nil {
			return err
		}
		ncryptsec, err := crypto.EncryptSecretToString(secret, cfg.Password, uint8(cfg.LogN))
		if err != nil {
			return fmt.Errorf("encrypting private key: %w", err)
		}
		logger.Printf("Encrypted Private Key (ncryptsec): %s", ncryptsec)
	}

	logger.Printf("Attempts: %d", result.Attempts)
	logger.Printf("Duration: %v", result.Duration.Round(time.Millisecond))

	// Calculate rate safely
	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Attempts) / result.Duration.Seconds()
	}
	logger.Printf("Rate: %.2f keys/sec", rate)
	return nil
}

// startSpinner shows live progress on an interactive terminal. It stays off
// when verbose logging or a log file already reports progress.
func startSpinner(miner *minerpkg.Miner) func() {
	if cfg.Verbose || cfg.LogFile != "" || color.NoColor {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = "  searching..."
	start := time.Now()
	done := make(chan struct{})
	s.Start()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				attempts := miner.Attempts()
				rate := float64(attempts) / time.Since(start).Seconds()
				s.Lock()
				s.Suffix = fmt.Sprintf("  %d attempts, %.0f keys/sec", attempts, rate)
				s.Unlock()
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		s.Stop()
	}
}

func setupLogging() error {
	if cfg.LogFile != "" {
		// Log to file
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger = logpkg.NewWriter(file)
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		// Log to stdout
		logger = logpkg.New()
		logger.SetFlags(log.LstdFlags)
	}
	logger.SetVerbose(cfg.Verbose)
	return nil
}
