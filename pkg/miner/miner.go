package miner

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yggr/vanikey/internal/config"
	"github.com/yggr/vanikey/internal/crypto"
	"github.com/yggr/vanikey/internal/logger"
	"github.com/yggr/vanikey/pkg/types"
	"github.com/yggr/vanikey/pkg/worker"
)

var (
	// ErrStopped is returned by Mine when Stop was called before any worker found a match.
	ErrStopped = errors.New("search stopped before a match was found")
	// ErrAlreadyStarted is returned when Mine is called twice on one Miner.
	ErrAlreadyStarted = errors.New("miner already started")
)

// Observer receives informational matches on additional prefixes.
// OnMatch is called from worker goroutines, possibly concurrently.
type Observer interface {
	OnMatch(types.Match)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(types.Match)

func (f ObserverFunc) OnMatch(m types.Match) { f(m) }

type nopObserver struct{}

func (nopObserver) OnMatch(types.Match) {}

// Miner coordinates one vanity key search across a fixed pool of workers
type Miner struct {
	request      types.SearchRequest
	workerConfig *types.WorkerConfig
	logger       *logger.Logger
	observer     Observer
	rand         io.Reader
	logInterval  time.Duration

	started  atomic.Bool
	found    atomic.Bool
	attempts int64
	results  chan types.SearchResult
	fatal    chan error
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// New creates a miner for a single search. A nil logger discards output.
func New(req types.SearchRequest, log *logger.Logger) *Miner {
	if log == nil {
		log = logger.NewWriter(io.Discard)
	}
	return &Miner{
		request:      req,
		workerConfig: types.NewWorkerConfig(req),
		logger:       log,
		observer:     nopObserver{},
		logInterval:  5 * time.Second,
		results:      make(chan types.SearchResult, 1),
		fatal:        make(chan error, 1),
		done:         make(chan struct{}),
	}
}

// NewMiner creates a new miner instance from the CLI configuration
func NewMiner(cfg *config.Config, log *logger.Logger) *Miner {
	m := New(cfg.Request(), log)
	if cfg.LogInterval > 0 {
		m.logInterval = time.Duration(cfg.LogInterval) * time.Second
	}
	return m
}

// SetObserver registers the receiver of additional-prefix matches
func (m *Miner) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	m.observer = o
}

// SetRand replaces crypto/rand as the entropy source. r is shared by all
// workers and must be safe for concurrent use.
func (m *Miner) SetRand(r io.Reader) {
	m.rand = r
}

// Attempts returns the number of keypairs generated so far
func (m *Miner) Attempts() int64 {
	return atomic.LoadInt64(&m.attempts)
}

// Mine runs the search and blocks until a worker finds a key whose npub
// starts with the primary prefix, a worker hits a fatal entropy error, or
// Stop is called. Every worker has exited by the time Mine returns.
func (m *Miner) Mine() (*types.SearchResult, error) {
	if err := m.request.Validate(); err != nil {
		return nil, err
	}
	if !m.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	start := time.Now()

	// Start workers
	for i := 0; i < m.request.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	var logTicker *time.Ticker
	var logDone chan struct{}
	if m.logger.Verbose() {
		logTicker = time.NewTicker(m.logInterval)
		logDone = make(chan struct{})
		go m.periodicLogger(logTicker, logDone, start)

		m.logger.Printf("Mining started with %d workers, logging every %v...",
			m.request.Workers, m.logInterval)
	}

	var result *types.SearchResult
	var err error
	select {
	case r := <-m.results:
		result = &r
	case err = <-m.fatal:
	case <-m.done:
		err = ErrStopped
	}

	// Winners set the flag themselves; this covers the fatal and stopped paths.
	m.Stop()
	m.wg.Wait()

	if logTicker != nil {
		logTicker.Stop()
		close(logDone)
	}

	if errors.Is(err, ErrStopped) {
		// A worker may have matched while the stop was in flight.
		select {
		case r := <-m.results:
			result, err = &r, nil
		default:
		}
	}
	if err != nil {
		return nil, err
	}

	result.Attempts = m.Attempts()
	result.Duration = time.Since(start)
	return result, nil
}

// worker runs the generate-encode-test loop for a single worker
func (m *Miner) worker(workerID int) {
	defer m.wg.Done()

	w := worker.NewWorker(m.workerConfig, crypto.NewKeypairSource(m.rand), &m.attempts)

	for !m.found.Load() {
		result, err := w.Attempt()
		if err != nil {
			m.logger.Printf("Worker %d: %v", workerID, err)
			select {
			case m.fatal <- err:
			default:
			}
			m.found.Store(true)
			return
		}

		for _, prefix := range result.AdditionalHits {
			m.observer.OnMatch(types.Match{
				Prefix: prefix,
				Npub:   result.Npub,
				Nsec:   result.Nsec,
			})
		}

		if result.IsMatch {
			m.found.Store(true)
			// Only the first send lands; later winners are dropped.
			select {
			case m.results <- types.SearchResult{Npub: result.Npub, Nsec: result.Nsec}:
				m.logger.Debugf("Worker %d found %s", workerID, result.Npub)
			default:
			}
			return
		}
	}
}

// Stop stops the mining process
func (m *Miner) Stop() {
	m.found.Store(true)
	m.once.Do(func() { close(m.done) })
}

// Close implements io.Closer so the miner can be handed to shutdown hooks.
func (m *Miner) Close() error {
	m.Stop()
	return nil
}

// periodicLogger logs mining progress at regular intervals
func (m *Miner) periodicLogger(ticker *time.Ticker, done chan struct{}, start time.Time) {
	for {
		select {
		case <-ticker.C:
			attempts := m.Attempts()
			elapsed := time.Since(start)

			// Calculate rate safely
			rate := 0.0
			if elapsed.Seconds() > 0 {
				rate = float64(attempts) / elapsed.Seconds()
			}

			m.logger.Printf("Progress: %d attempts, %.2f keys/sec, No match yet", attempts, rate)
		case <-done:
			return
		}
	}
}

// FindVanityKey runs a complete search for req and returns the first match.
func FindVanityKey(req types.SearchRequest, obs Observer) (*types.SearchResult, error) {
	m := New(req, nil)
	m.SetObserver(obs)
	return m.Mine()
}
