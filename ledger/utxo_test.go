package ledger

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestUtxoSetBasics(t *testing.T) {
	set := NewUtxoSet()
	op := NewOutpoint(chainhash.HashH([]byte("a")), 1)
	out := TxOutput{Value: 5, Address: []byte("k")}

	require.False(t, set.Contains(op))
	_, ok := set.Get(op)
	require.False(t, ok)

	set.Add(op, out)
	require.True(t, set.Contains(op))
	got, ok := set.Get(op)
	require.True(t, ok)
	require.True(t, out.Equal(got))

	// Returned outputs do not alias the stored ones.
	got.Address[0] = 'x'
	again, _ := set.Get(op)
	require.Equal(t, []byte("k"), again.Address)

	clone := set.Clone()
	set.Remove(op)
	require.False(t, set.Contains(op))
	require.True(t, clone.Contains(op))
	require.Equal(t, 0, set.Len())
	require.Equal(t, 1, clone.Len())

	// Removing a missing outpoint is a no-op.
	set.Remove(op)
}

func TestUtxoSetBalance(t *testing.T) {
	pool, _ := genesis(t,
		TxOutput{Value: 5, Address: []byte("k")},
		TxOutput{Value: 7, Address: []byte("k")},
		TxOutput{Value: 11, Address: []byte("j")},
	)

	balance, err := pool.Balance([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, Amount(12), balance)

	ops := pool.Outpoints()
	require.Len(t, ops, 3)
	for i := 1; i < len(ops); i++ {
		require.True(t, ops[i-1].Less(ops[i]))
	}
}

func TestOverlayConnect(t *testing.T) {
	owner := []byte("owner")
	pool, ops := genesis(t,
		TxOutput{Value: 10, Address: owner},
		TxOutput{Value: 20, Address: owner},
	)
	before := pool.Clone()

	parent, err := NewTransaction(
		[]TxInput{{PreviousOutPoint: ops[0]}},
		[]TxOutput{{Value: 9, Address: owner}},
	)
	require.NoError(t, err)
	child, err := NewTransaction(
		[]TxInput{{PreviousOutPoint: NewOutpoint(parent.Hash(), 0)}},
		[]TxOutput{{Value: 8, Address: owner}},
	)
	require.NoError(t, err)

	overlay := newUtxoOverlay(pool)
	require.NoError(t, overlay.connectTransaction(parent))
	require.False(t, overlay.Contains(ops[0]))
	require.True(t, overlay.Contains(NewOutpoint(parent.Hash(), 0)))

	require.NoError(t, overlay.connectTransaction(child))
	require.False(t, overlay.Contains(NewOutpoint(parent.Hash(), 0)))
	out, ok := overlay.Get(NewOutpoint(child.Hash(), 0))
	require.True(t, ok)
	require.Equal(t, Amount(8), out.Value)

	// The base is untouched until the diff is applied.
	require.Equal(t, before, pool)

	// The parent output was created and spent within the overlay, so it
	// never shows up in the diff.
	diff := overlay.diff
	require.Equal(t, []Outpoint{ops[0]}, diff.Removed())
	require.Equal(t, []Outpoint{NewOutpoint(child.Hash(), 0)}, diff.Added())

	pool.ApplyDiff(diff)
	require.False(t, pool.Contains(ops[0]))
	require.True(t, pool.Contains(ops[1]))
	require.True(t, pool.Contains(NewOutpoint(child.Hash(), 0)))
	require.Equal(t, 2, pool.Len())
}

func TestOverlayRefusesOverwrite(t *testing.T) {
	owner := []byte("owner")
	tx, err := NewTransaction(nil, []TxOutput{{Value: 0, Address: owner}})
	require.NoError(t, err)

	pool := NewUtxoSet()
	pool.AddTransactionOutputs(tx)

	overlay := newUtxoOverlay(pool)
	err = overlay.connectTransaction(tx)
	requireRuleError(t, err, ErrOverwriteTx)
	require.True(t, overlay.diff.IsEmpty())
}
