package ledger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalcFee(t *testing.T) {
	owner := []byte("owner")
	pool, ops := genesis(t,
		TxOutput{Value: 100, Address: owner},
		TxOutput{Value: MaxAmount, Address: owner},
	)

	tests := []struct {
		name    string
		inputs  []Outpoint
		outputs []Amount
		fee     Amount
		ok      bool
	}{
		{name: "positive", inputs: ops[:1], outputs: []Amount{90}, fee: 10, ok: true},
		{name: "deficit", inputs: ops[:1], outputs: []Amount{120}, fee: -20, ok: true},
		{name: "no inputs", outputs: []Amount{5}, fee: -5, ok: true},
		{name: "unresolved input", inputs: []Outpoint{NewOutpoint(ops[0].Hash, 7)},
			outputs: []Amount{1}},
		{name: "partly unresolved", inputs: []Outpoint{ops[0], NewOutpoint(ops[0].Hash, 7)},
			outputs: []Amount{1}},
		{name: "input overflow", inputs: []Outpoint{ops[1], ops[0]}},
	}

	for _, test := range tests {
		inputs := make([]TxInput, len(test.inputs))
		for i, op := range test.inputs {
			inputs[i].PreviousOutPoint = op
		}
		outputs := make([]TxOutput, len(test.outputs))
		for i, v := range test.outputs {
			outputs[i] = TxOutput{Value: v, Address: owner}
		}
		tx, err := NewTransaction(inputs, outputs)
		require.NoError(t, err)

		fee, ok := CalcFee(tx, pool)
		require.Equal(t, test.ok, ok, test.name)
		if test.ok {
			require.Equal(t, test.fee, fee, test.name)
		}
	}

	_, ok := CalcFee(nil, pool)
	require.False(t, ok)
}

func TestMaxFeeOrdering(t *testing.T) {
	owner := []byte("owner")
	pool, ops := genesis(t,
		TxOutput{Value: 100, Address: owner},
		TxOutput{Value: 100, Address: owner},
		TxOutput{Value: 100, Address: owner},
		TxOutput{Value: 100, Address: owner},
	)

	mk := func(op Outpoint, out Amount) *Transaction {
		tx, err := NewTransaction(
			[]TxInput{{PreviousOutPoint: op}},
			[]TxOutput{{Value: out, Address: owner}},
		)
		require.NoError(t, err)
		return tx
	}

	low := mk(ops[0], 99)                             // fee 1
	high := mk(ops[1], 50)                            // fee 50
	tieA := mk(ops[2], 80)                            // fee 20
	tieB := mk(ops[3], 80)                            // fee 20
	unknown := mk(NewOutpoint(ops[0].Hash, 42), -500) // unresolved

	ordered := MaxFee([]*Transaction{unknown, low, tieA, high, tieB}, pool)
	require.Len(t, ordered, 5)
	require.Same(t, high, ordered[0])

	first, second := tieA, tieB
	a, b := tieA.Hash(), tieB.Hash()
	if bytes.Compare(b[:], a[:]) < 0 {
		first, second = tieB, tieA
	}
	require.Same(t, first, ordered[1])
	require.Same(t, second, ordered[2])
	require.Same(t, low, ordered[3])
	require.Same(t, unknown, ordered[4])

	// Ranking is independent of submission order.
	again := MaxFee([]*Transaction{tieB, high, unknown, tieA, low}, pool)
	require.Equal(t, hashes(ordered), hashes(again))
}

func TestFirstComeKeepsOrder(t *testing.T) {
	owner := []byte("owner")
	a, err := NewTransaction(nil, []TxOutput{{Value: 1, Address: owner}})
	require.NoError(t, err)
	b, err := NewTransaction(nil, []TxOutput{{Value: 2, Address: owner}})
	require.NoError(t, err)

	in := []*Transaction{b, a}
	out := FirstCome(in, NewUtxoSet())
	require.Equal(t, in, out)

	out[0] = nil
	require.Same(t, b, in[0], "result must not alias the input")
}

func TestStrategyByName(t *testing.T) {
	for _, name := range []string{"maxfee", "MaxFee", "firstcome"} {
		s, err := StrategyByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, s)
	}

	_, err := StrategyByName("optimal")
	require.Error(t, err)
}
