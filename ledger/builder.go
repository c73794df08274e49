package ledger

import (
	"fmt"
)

// Signer produces the signature bytes for one input's signing payload.
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// TxBuilder assembles a transaction and signs each input once every output
// is known, since the signing payload commits to all outputs.
type TxBuilder struct {
	prevOuts []Outpoint
	signers  []Signer
	outputs  []TxOutput
}

// NewTxBuilder returns an empty builder.
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{}
}

// AddInput spends prevOut.  A nil signer leaves the input unsigned.
func (b *TxBuilder) AddInput(prevOut Outpoint, signer Signer) *TxBuilder {
	b.prevOuts = append(b.prevOuts, prevOut)
	b.signers = append(b.signers, signer)
	return b
}

// AddOutput locks value to address.
func (b *TxBuilder) AddOutput(value Amount, address []byte) *TxBuilder {
	b.outputs = append(b.outputs, TxOutput{Value: value, Address: address})
	return b
}

// Build signs every input and returns the finished transaction.
func (b *TxBuilder) Build() (*Transaction, error) {
	inputs := make([]TxInput, len(b.prevOuts))
	for i, prevOut := range b.prevOuts {
		inputs[i].PreviousOutPoint = prevOut
		if b.signers[i] == nil {
			continue
		}

		payload, err := signingPayload(prevOut, b.outputs)
		if err != nil {
			return nil, err
		}
		sig, err := b.signers[i].Sign(payload)
		if err != nil {
			return nil, fmt.Errorf("sign input %d: %w", i, err)
		}
		inputs[i].Signature = sig
	}

	return NewTransaction(inputs, b.outputs)
}
