package worker

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/yggr/vanikey/internal/crypto"
	"github.com/yggr/vanikey/pkg/types"
)

// Worker handles individual keypair generation and matching
type Worker struct {
	config   *types.WorkerConfig
	source   *crypto.KeypairSource
	attempts *int64
}

// NewWorker creates a new worker instance. Each worker needs its own source.
func NewWorker(config *types.WorkerConfig, source *crypto.KeypairSource, attempts *int64) *Worker {
	return &Worker{
		config:   config,
		source:   source,
		attempts: attempts,
	}
}

// Attempt generates a single keypair, encodes both halves and tests the npub
// against the primary and additional prefixes. An error means the entropy
// source failed and the worker must stop.
func (w *Worker) Attempt() (*types.WorkerResult, error) {
	kp, err := w.source.Generate()
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	npub, err := crypto.EncodePublic(kp.PublicBytes())
	if err != nil {
		return nil, err
	}
	nsec, err := crypto.EncodePrivate(kp.SecretBytes())
	if err != nil {
		return nil, err
	}

	atomic.AddInt64(w.attempts, 1)

	result := &types.WorkerResult{
		Npub: npub,
		Nsec: nsec,
	}
	for i, target := range w.config.AdditionalTargets {
		if strings.HasPrefix(npub, target) {
			result.AdditionalHits = append(result.AdditionalHits, w.config.Additional[i])
		}
	}

	if strings.HasPrefix(npub, w.config.Target) {
		mustBind(kp, npub)
		result.IsMatch = true
	}

	return result, nil
}

// mustBind panics unless npub encodes the public key derived from the keypair's secret.
func mustBind(kp *crypto.Keypair, npub string) {
	if err := kp.Verify(); err != nil {
		panic(err)
	}
	encoded, err := crypto.EncodePublic(kp.PublicBytes())
	if err != nil {
		panic(err)
	}
	if encoded != npub {
		panic(fmt.Sprintf("key pair mismatch: %s encodes to %s", npub, encoded))
	}
}
