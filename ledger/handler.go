package ledger

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// DefaultSigCacheSize is the number of successful signature verifications
// remembered when Config.SigCacheSize is zero.
const DefaultSigCacheSize = 50000

// Persister durably records the outcome of an epoch.  Commit must apply diff
// completely or not at all.
type Persister interface {
	Commit(epoch uint64, diff *UtxoDiff) error
}

// Config holds the tunables of a TxHandler.  The zero value is usable.
type Config struct {
	// Strategy orders candidates before admission.  Defaults to MaxFee.
	Strategy Strategy

	// Verifier checks input signatures.  Defaults to DefaultVerifier.
	Verifier SignatureVerifier

	// Workers bounds the goroutines validating candidates in parallel
	// against the starting pool.  Defaults to runtime.NumCPU().  A value
	// of one disables parallel validation.
	Workers int

	// SigCacheSize bounds the signature cache.  Defaults to
	// DefaultSigCacheSize.
	SigCacheSize uint

	// Persister, when set, receives every epoch's diff before it is
	// applied in memory.
	Persister Persister

	// Epoch is the number of epochs already reflected in the pool handed
	// to New.
	Epoch uint64
}

// TxHandler owns a pool of unspent outputs and advances it one epoch at a
// time.  It is safe for concurrent use; epochs are serialized and queries
// see the last committed pool.
type TxHandler struct {
	// epochMtx serializes epochs.  The holder is the only writer of pool
	// and may read it without poolMtx.
	epochMtx sync.Mutex

	poolMtx sync.RWMutex
	pool    *UtxoSet
	epoch   uint64

	validator *Validator
	selector  *epochSelector
	persister Persister
}

// New returns a handler whose pool starts as a copy of pool.  A nil pool
// starts empty and a nil cfg uses the defaults.
func New(pool *UtxoSet, cfg *Config) *TxHandler {
	initPrometheusMetrics()

	if cfg == nil {
		cfg = &Config{}
	}
	if pool == nil {
		pool = NewUtxoSet()
	}

	strategy := cfg.Strategy
	if strategy == nil {
		strategy = MaxFee
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = DefaultVerifier
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	cacheSize := cfg.SigCacheSize
	if cacheSize == 0 {
		cacheSize = DefaultSigCacheSize
	}

	validator := NewValidator(&cachingVerifier{
		verifier: verifier,
		cache:    newSigCache(cacheSize),
	})

	h := &TxHandler{
		pool:      pool.Clone(),
		epoch:     cfg.Epoch,
		validator: validator,
		selector: &epochSelector{
			validator: validator,
			strategy:  strategy,
			workers:   workers,
		},
		persister: cfg.Persister,
	}
	prometheusLedgerPoolSize.Set(float64(h.pool.Len()))

	return h
}

// CheckTransaction validates tx against the committed pool and returns the
// rule it breaks, if any.
func (h *TxHandler) CheckTransaction(tx *Transaction) error {
	h.poolMtx.RLock()
	defer h.poolMtx.RUnlock()

	_, err := h.validator.CheckTransaction(tx, h.pool)
	return err
}

// IsValid reports whether tx is valid against the committed pool.  It has
// no side effects.
func (h *TxHandler) IsValid(tx *Transaction) bool {
	return h.CheckTransaction(tx) == nil
}

// HandleEpoch admits a conflict-free subset of candidates, updates the pool
// and returns the admitted transactions in admission order.  Invalid
// candidates are left out without error.  If the epoch can not be persisted
// nothing is admitted and the pool is left as it was.
func (h *TxHandler) HandleEpoch(candidates []*Transaction) []*Transaction {
	result, err := h.HandleEpochContext(context.Background(), candidates)
	if err != nil {
		log.Errorf("Epoch discarded: %v", err)
		return nil
	}
	return result.Accepted
}

// HandleEpochContext is HandleEpoch with cancellation and the full epoch
// result.  When ctx is done before the commit, or the persister fails, an
// error is returned and the committed pool is unchanged.
func (h *TxHandler) HandleEpochContext(ctx context.Context,
	candidates []*Transaction) (*EpochResult, error) {

	h.epochMtx.Lock()
	defer h.epochMtx.Unlock()

	start := time.Now()
	epoch := h.epoch + 1

	result, err := h.selector.run(ctx, h.pool, candidates)
	if err != nil {
		prometheusLedgerEpochAborts.Inc()
		return nil, fmt.Errorf("epoch %d aborted: %w", epoch, err)
	}

	if h.persister != nil {
		if err := h.persister.Commit(epoch, result.Diff); err != nil {
			prometheusLedgerEpochAborts.Inc()
			return nil, fmt.Errorf("persist epoch %d: %w", epoch, err)
		}
	}

	h.poolMtx.Lock()
	h.pool.ApplyDiff(result.Diff)
	h.epoch = epoch
	poolSize := h.pool.Len()
	h.poolMtx.Unlock()

	prometheusLedgerEpochs.Inc()
	prometheusLedgerAdmitted.Add(float64(len(result.Accepted)))
	prometheusLedgerFees.Add(float64(result.Fees))
	for _, rejection := range result.Rejected {
		prometheusLedgerRejected.WithLabelValues(rejectReason(rejection.Err)).Inc()
	}
	prometheusLedgerPoolSize.Set(float64(poolSize))
	prometheusLedgerEpochDuration.Observe(time.Since(start).Seconds())

	log.Infof("Committed epoch %d: %d admitted, %d rejected, fees %d, "+
		"pool size %d", epoch, len(result.Accepted), len(result.Rejected),
		result.Fees, poolSize)

	return result, nil
}

// Pool returns a copy of the committed pool.
func (h *TxHandler) Pool() *UtxoSet {
	h.poolMtx.RLock()
	defer h.poolMtx.RUnlock()

	return h.pool.Clone()
}

// Epoch returns the number of committed epochs.
func (h *TxHandler) Epoch() uint64 {
	h.poolMtx.RLock()
	defer h.poolMtx.RUnlock()

	return h.epoch
}
