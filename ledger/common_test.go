package ledger

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TualatinX/ledger-go/wallet"
)

// stubVerifier accepts every signature except the literal "bad".
type stubVerifier struct{}

func (stubVerifier) Verify(_, _, signature []byte) bool {
	return !bytes.Equal(signature, []byte("bad"))
}

// countingVerifier counts the verifications reaching the wrapped verifier.
type countingVerifier struct {
	sync.Mutex
	SignatureVerifier
	calls int
}

func (v *countingVerifier) Verify(address, message, signature []byte) bool {
	v.Lock()
	v.calls++
	v.Unlock()
	return v.SignatureVerifier.Verify(address, message, signature)
}

func (v *countingVerifier) Calls() int {
	v.Lock()
	defer v.Unlock()
	return v.calls
}

// memPersister records committed diffs and optionally fails.
type memPersister struct {
	epochs []uint64
	diffs  []*UtxoDiff
	err    error
}

func (p *memPersister) Commit(epoch uint64, diff *UtxoDiff) error {
	if p.err != nil {
		return p.err
	}
	p.epochs = append(p.epochs, epoch)
	p.diffs = append(p.diffs, diff)
	return nil
}

var errPersist = errors.New("disk full")

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()

	w, err := wallet.MakeWallet()
	require.NoError(t, err)
	return w
}

// genesis returns a pool holding the given outputs, all produced by a single
// input-less transaction, and their outpoints in order.
func genesis(t *testing.T, outputs ...TxOutput) (*UtxoSet, []Outpoint) {
	t.Helper()

	tx, err := NewTransaction(nil, outputs)
	require.NoError(t, err)

	pool := NewUtxoSet()
	pool.AddTransactionOutputs(tx)

	ops := make([]Outpoint, len(outputs))
	for i := range outputs {
		ops[i] = NewOutpoint(tx.Hash(), uint32(i))
	}
	return pool, ops
}

// spend builds a transaction spending prevOuts, every input signed by
// signer, paying outputs.
func spend(t *testing.T, signer Signer, prevOuts []Outpoint, outputs ...TxOutput) *Transaction {
	t.Helper()

	b := NewTxBuilder()
	for _, op := range prevOuts {
		b.AddInput(op, signer)
	}
	for _, out := range outputs {
		b.AddOutput(out.Value, out.Address)
	}
	tx, err := b.Build()
	require.NoError(t, err)
	return tx
}

func pay(w *wallet.Wallet, value Amount) TxOutput {
	return TxOutput{Value: value, Address: w.PubKeyHash()}
}

func requireRuleError(t *testing.T, err error, code ErrorCode) {
	t.Helper()

	var rerr RuleError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, code, rerr.ErrorCode, "unexpected error: %v", err)
}

func hashes(txns []*Transaction) []string {
	out := make([]string, len(txns))
	for i, tx := range txns {
		out[i] = tx.Hash().String()
	}
	return out
}
