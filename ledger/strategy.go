package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Strategy orders the candidates of an epoch before they are admitted one
// by one.  It reads snapshot, the pool as it was when the epoch started, and
// returns every candidate exactly once.
type Strategy func(candidates []*Transaction, snapshot UtxoView) []*Transaction

// FirstCome keeps the order in which candidates were submitted.
func FirstCome(candidates []*Transaction, _ UtxoView) []*Transaction {
	return append([]*Transaction(nil), candidates...)
}

// feeRank is the ranking key MaxFee sorts by.
type feeRank struct {
	tx     *Transaction
	fee    Amount
	ranked bool
	pos    int
}

// less orders known fees before unknown ones, higher fees first, then by
// ascending transaction hash and finally by submission position.
func (r *feeRank) less(other *feeRank) bool {
	if r.ranked != other.ranked {
		return r.ranked
	}
	if r.ranked && r.fee != other.fee {
		return r.fee > other.fee
	}
	rHash, oHash := r.tx.Hash(), other.tx.Hash()
	if c := bytes.Compare(rHash[:], oHash[:]); c != 0 {
		return c < 0
	}
	return r.pos < other.pos
}

// MaxFee orders candidates by descending fee against snapshot.  Candidates
// whose fee can not be computed go last.
//
// Admitting greedily in this order never double spends, but it is not
// optimal: two cheaper transactions that do not conflict with each other may
// together pay more than a single pricier one that conflicts with both, and
// MaxFee takes the single one.
func MaxFee(candidates []*Transaction, snapshot UtxoView) []*Transaction {
	ranks := make([]*feeRank, len(candidates))
	for i, tx := range candidates {
		fee, ok := CalcFee(tx, snapshot)
		ranks[i] = &feeRank{tx: tx, fee: fee, ranked: ok, pos: i}
	}
	sort.Slice(ranks, func(i, j int) bool {
		return ranks[i].less(ranks[j])
	})

	ordered := make([]*Transaction, len(ranks))
	for i, r := range ranks {
		ordered[i] = r.tx
	}
	return ordered
}

var strategies = map[string]Strategy{
	"firstcome": FirstCome,
	"maxfee":    MaxFee,
}

// StrategyByName returns the strategy registered under name, ignoring case.
func StrategyByName(name string) (Strategy, error) {
	strategy, ok := strategies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return strategy, nil
}
