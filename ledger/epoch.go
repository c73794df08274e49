package ledger

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Rejection records why a candidate was left out of an epoch.
type Rejection struct {
	Tx  *Transaction
	Err error
}

// EpochResult is the outcome of one epoch.
type EpochResult struct {
	// Accepted holds the admitted transactions in admission order.
	Accepted []*Transaction

	// Rejected holds the excluded candidates in the order they were
	// considered.
	Rejected []Rejection

	// Fees is the sum of the fees of the admitted transactions,
	// saturating at MaxAmount.
	Fees Amount

	// Diff is the net change the epoch makes to its starting pool.
	Diff *UtxoDiff
}

// epochSelector ranks a batch of candidates and folds them one at a time
// over an overlay of the starting pool.
type epochSelector struct {
	validator *Validator
	strategy  Strategy
	workers   int
}

// run processes one epoch against snapshot, which must not change until run
// returns.  snapshot itself is never written: every effect is recorded in
// the returned diff.  An error is only returned when ctx is done, in which
// case nothing of the epoch should be committed.
func (s *epochSelector) run(ctx context.Context, snapshot UtxoView,
	candidates []*Transaction) (*EpochResult, error) {

	result := &EpochResult{}

	txns := make([]*Transaction, 0, len(candidates))
	for _, tx := range candidates {
		if tx == nil {
			result.reject(nil, ruleError(ErrMalformedTx, "transaction is nil"))
			continue
		}
		txns = append(txns, tx)
	}

	ranked := s.strategy(txns, snapshot)

	if err := s.prevalidate(ctx, ranked, snapshot); err != nil {
		return nil, err
	}

	overlay := newUtxoOverlay(snapshot)
	for _, tx := range ranked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.admit(result, overlay, tx)
	}
	result.Diff = overlay.diff

	return result, nil
}

// admit is one step of the epoch fold.  tx is checked against the overlay as
// it stands after every earlier admission and, when valid, applied to it as
// a single unit.
func (s *epochSelector) admit(result *EpochResult, overlay *utxoOverlay, tx *Transaction) {
	fee, err := s.validator.CheckTransaction(tx, overlay)
	if err == nil {
		err = overlay.connectTransaction(tx)
	}
	if err != nil {
		log.Debugf("Rejected transaction %v: %v", tx.Hash(), err)
		result.reject(tx, err)
		return
	}

	log.Tracef("Admitted transaction %v with fee %d", tx.Hash(), fee)
	result.Accepted = append(result.Accepted, tx)
	if result.Fees, err = result.Fees.Add(fee); err != nil {
		result.Fees = MaxAmount
	}
}

func (r *EpochResult) reject(tx *Transaction, err error) {
	r.Rejected = append(r.Rejected, Rejection{Tx: tx, Err: err})
}

// prevalidate checks every candidate against the untouched snapshot in
// parallel.  Its verdicts are discarded; the point is to perform the
// signature checks concurrently so that the sequential admission pass finds
// them in the signature cache.
func (s *epochSelector) prevalidate(ctx context.Context, txns []*Transaction,
	snapshot UtxoView) error {

	if s.workers <= 1 || len(txns) < 2 {
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, tx := range txns {
		tx := tx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, _ = s.validator.CheckTransaction(tx, snapshot)
			return nil
		})
	}

	return g.Wait()
}

// rejectReason returns the label rejections are counted under.
func rejectReason(err error) string {
	var rerr RuleError
	if errors.As(err, &rerr) {
		return rerr.ErrorCode.String()
	}
	return "other"
}
