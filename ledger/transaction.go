package ledger

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/fxamacker/cbor/v2"
)

// encMode produces the canonical encoding transactions are hashed and
// signed over.
var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ledger: cbor encoder: %v", err))
	}
	return em
}()

// Outpoint identifies one transaction output by the hash of the transaction
// that produced it and the output's position.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutpoint returns an outpoint for the given transaction hash and index.
func NewOutpoint(hash chainhash.Hash, index uint32) Outpoint {
	return Outpoint{Hash: hash, Index: index}
}

// String returns the outpoint in the human-readable form "hash:index".
func (o Outpoint) String() string {
	return fmt.Sprintf("%v:%d", o.Hash, o.Index)
}

// Less orders outpoints by hash bytes and then by index.
func (o Outpoint) Less(other Outpoint) bool {
	if c := bytes.Compare(o.Hash[:], other.Hash[:]); c != 0 {
		return c < 0
	}
	return o.Index < other.Index
}

// TxOutput is a value locked to the owner of Address.
type TxOutput struct {
	Value Amount

	// Address is the public key commitment of the owner, checked by the
	// configured SignatureVerifier when the output is spent.
	Address []byte
}

// Clone returns a copy that does not share the address bytes.
func (out TxOutput) Clone() TxOutput {
	return TxOutput{Value: out.Value, Address: append([]byte(nil), out.Address...)}
}

// Equal reports whether both outputs carry the same value and address.
func (out TxOutput) Equal(other TxOutput) bool {
	return out.Value == other.Value && bytes.Equal(out.Address, other.Address)
}

// TxInput references a previous output and carries the signature that
// unlocks it.
type TxInput struct {
	PreviousOutPoint Outpoint
	Signature        []byte
}

// Transaction is an immutable ordered set of inputs and outputs.  Its hash is
// computed once at construction.
type Transaction struct {
	inputs  []TxInput
	outputs []TxOutput
	hash    chainhash.Hash
}

type wireOutpoint struct {
	_     struct{} `cbor:",toarray"`
	Hash  []byte
	Index uint32
}

type wireTxIn struct {
	_         struct{} `cbor:",toarray"`
	PrevOut   wireOutpoint
	Signature []byte
}

type wireTxOut struct {
	_       struct{} `cbor:",toarray"`
	Value   int64
	Address []byte
}

type wireTx struct {
	_       struct{} `cbor:",toarray"`
	Inputs  []wireTxIn
	Outputs []wireTxOut
}

type wireSigningPayload struct {
	_       struct{} `cbor:",toarray"`
	PrevOut wireOutpoint
	Outputs []wireTxOut
}

func toWireOutpoint(o Outpoint) wireOutpoint {
	return wireOutpoint{Hash: o.Hash[:], Index: o.Index}
}

func toWireOutputs(outputs []TxOutput) []wireTxOut {
	wire := make([]wireTxOut, len(outputs))
	for i, out := range outputs {
		wire[i] = wireTxOut{Value: int64(out.Value), Address: out.Address}
	}
	return wire
}

// NewTransaction copies inputs and outputs into a new transaction and
// computes its hash.
func NewTransaction(inputs []TxInput, outputs []TxOutput) (*Transaction, error) {
	tx := &Transaction{
		inputs:  make([]TxInput, len(inputs)),
		outputs: make([]TxOutput, len(outputs)),
	}
	for i, in := range inputs {
		tx.inputs[i] = TxInput{
			PreviousOutPoint: in.PreviousOutPoint,
			Signature:        append([]byte(nil), in.Signature...),
		}
	}
	for i, out := range outputs {
		tx.outputs[i] = out.Clone()
	}

	encoded, err := tx.encode()
	if err != nil {
		return nil, err
	}
	tx.hash = chainhash.DoubleHashH(encoded)

	return tx, nil
}

func (tx *Transaction) encode() ([]byte, error) {
	wire := wireTx{
		Inputs:  make([]wireTxIn, len(tx.inputs)),
		Outputs: toWireOutputs(tx.outputs),
	}
	for i, in := range tx.inputs {
		wire.Inputs[i] = wireTxIn{
			PrevOut:   toWireOutpoint(in.PreviousOutPoint),
			Signature: in.Signature,
		}
	}

	encoded, err := encMode.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return encoded, nil
}

// Hash returns the content hash of the transaction.
func (tx *Transaction) Hash() chainhash.Hash {
	return tx.hash
}

// NumInputs returns the number of inputs.
func (tx *Transaction) NumInputs() int {
	return len(tx.inputs)
}

// NumOutputs returns the number of outputs.
func (tx *Transaction) NumOutputs() int {
	return len(tx.outputs)
}

// Input returns a copy of the input at index i.
func (tx *Transaction) Input(i int) TxInput {
	in := tx.inputs[i]
	in.Signature = append([]byte(nil), in.Signature...)
	return in
}

// Output returns a copy of the output at index i.
func (tx *Transaction) Output(i int) TxOutput {
	return tx.outputs[i].Clone()
}

// Inputs returns a copy of the inputs.
func (tx *Transaction) Inputs() []TxInput {
	inputs := make([]TxInput, len(tx.inputs))
	for i := range tx.inputs {
		inputs[i] = tx.Input(i)
	}
	return inputs
}

// Outputs returns a copy of the outputs.
func (tx *Transaction) Outputs() []TxOutput {
	outputs := make([]TxOutput, len(tx.outputs))
	for i := range tx.outputs {
		outputs[i] = tx.Output(i)
	}
	return outputs
}

// SigningPayload returns the message the signature of input i must sign: the
// outpoint that input spends followed by every output of the transaction.
func (tx *Transaction) SigningPayload(i int) ([]byte, error) {
	if i < 0 || i >= len(tx.inputs) {
		return nil, fmt.Errorf("input index %d out of range [0,%d)", i, len(tx.inputs))
	}
	return signingPayload(tx.inputs[i].PreviousOutPoint, tx.outputs)
}

func signingPayload(prevOut Outpoint, outputs []TxOutput) ([]byte, error) {
	payload, err := encMode.Marshal(wireSigningPayload{
		PrevOut: toWireOutpoint(prevOut),
		Outputs: toWireOutputs(outputs),
	})
	if err != nil {
		return nil, fmt.Errorf("encode signing payload: %w", err)
	}
	return payload, nil
}

// String returns a multi-line description of the transaction.
func (tx *Transaction) String() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("--- Transaction %v:", tx.hash))
	for i, in := range tx.inputs {
		lines = append(lines, fmt.Sprintf("     Input %d:", i))
		lines = append(lines, fmt.Sprintf("       Outpoint:  %v", in.PreviousOutPoint))
		lines = append(lines, fmt.Sprintf("       Signature: %x", in.Signature))
	}
	for i, out := range tx.outputs {
		lines = append(lines, fmt.Sprintf("     Output %d:", i))
		lines = append(lines, fmt.Sprintf("       Value:  %d", out.Value))
		lines = append(lines, fmt.Sprintf("       Address: %s", hex.EncodeToString(out.Address)))
	}

	return strings.Join(lines, "\n")
}
