package ledger

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomEpoch builds a pool and a batch of candidates that overlap heavily:
// inputs are drawn from a small set of outpoints, some of which do not
// exist, and some signatures and output values are invalid.
func randomEpoch(seed int64, poolSize, numTxns int) (*UtxoSet, []*Transaction) {
	rng := rand.New(rand.NewSource(seed))
	owner := []byte("owner")

	outputs := make([]TxOutput, poolSize)
	for i := range outputs {
		outputs[i] = TxOutput{Value: Amount(rng.Intn(100)), Address: owner}
	}
	funding, _ := NewTransaction(nil, outputs)
	pool := NewUtxoSet()
	pool.AddTransactionOutputs(funding)

	candidates := make([]*Transaction, 0, numTxns)
	for len(candidates) < numTxns {
		inputs := make([]TxInput, 1+rng.Intn(3))
		for i := range inputs {
			inputs[i].PreviousOutPoint = NewOutpoint(funding.Hash(),
				uint32(rng.Intn(poolSize+1)))
			inputs[i].Signature = []byte("ok")
			if rng.Intn(10) == 0 {
				inputs[i].Signature = []byte("bad")
			}
		}
		outs := make([]TxOutput, 1+rng.Intn(2))
		for i := range outs {
			outs[i] = TxOutput{Value: Amount(rng.Intn(120) - 5), Address: owner}
		}
		tx, err := NewTransaction(inputs, outs)
		if err != nil {
			continue
		}
		candidates = append(candidates, tx)
	}

	return pool, candidates
}

func TestEpochProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genSeed := gen.Int64()
	genPool := gen.IntRange(1, 6)
	genTxns := gen.IntRange(0, 12)

	properties.Property("no outpoint is spent twice", prop.ForAll(
		func(seed int64, poolSize, numTxns int) bool {
			pool, candidates := randomEpoch(seed, poolSize, numTxns)
			accepted := New(pool, &Config{Verifier: stubVerifier{}}).HandleEpoch(candidates)

			spent := make(map[Outpoint]struct{})
			for _, tx := range accepted {
				for _, in := range tx.inputs {
					if _, ok := spent[in.PreviousOutPoint]; ok {
						return false
					}
					spent[in.PreviousOutPoint] = struct{}{}
				}
			}
			return true
		},
		genSeed, genPool, genTxns,
	))

	properties.Property("admitted transactions conserve value", prop.ForAll(
		func(seed int64, poolSize, numTxns int) bool {
			pool, candidates := randomEpoch(seed, poolSize, numTxns)
			accepted := New(pool, &Config{Verifier: stubVerifier{}}).HandleEpoch(candidates)

			// Every admitted input comes from the starting pool in this
			// scenario, so fees are computed against it.
			for _, tx := range accepted {
				fee, ok := CalcFee(tx, pool)
				if !ok || fee < 0 {
					return false
				}
				for _, out := range tx.outputs {
					if out.Value < 0 {
						return false
					}
				}
			}
			return true
		},
		genSeed, genPool, genTxns,
	))

	properties.Property("pool reflects exactly the admitted transactions", prop.ForAll(
		func(seed int64, poolSize, numTxns int) bool {
			pool, candidates := randomEpoch(seed, poolSize, numTxns)
			h := New(pool, &Config{Verifier: stubVerifier{}})
			accepted := h.HandleEpoch(candidates)

			expected := pool.Clone()
			for _, tx := range accepted {
				for _, in := range tx.inputs {
					expected.Remove(in.PreviousOutPoint)
				}
				expected.AddTransactionOutputs(tx)
			}
			got := h.Pool()
			if got.Len() != expected.Len() {
				return false
			}
			for _, op := range expected.Outpoints() {
				want, _ := expected.Get(op)
				have, ok := got.Get(op)
				if !ok || !want.Equal(have) {
					return false
				}
			}
			return true
		},
		genSeed, genPool, genTxns,
	))

	properties.Property("epochs are deterministic", prop.ForAll(
		func(seed int64, poolSize, numTxns int) bool {
			pool, candidates := randomEpoch(seed, poolSize, numTxns)

			first := New(pool, &Config{Verifier: stubVerifier{}, Workers: 4}).
				HandleEpoch(candidates)

			reversed := make([]*Transaction, len(candidates))
			for i, tx := range candidates {
				reversed[len(candidates)-1-i] = tx
			}
			second := New(pool, &Config{Verifier: stubVerifier{}, Workers: 1}).
				HandleEpoch(reversed)

			if len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i].Hash() != second[i].Hash() {
					return false
				}
			}
			return true
		},
		genSeed, genPool, genTxns,
	))

	properties.TestingRun(t)
}
