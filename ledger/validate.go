package ledger

import (
	"fmt"
)

// Validator checks individual transactions against a view of the pool.
type Validator struct {
	verifier SignatureVerifier
}

// NewValidator returns a validator that checks input signatures with
// verifier.  A nil verifier selects DefaultVerifier.
func NewValidator(verifier SignatureVerifier) *Validator {
	if verifier == nil {
		verifier = DefaultVerifier
	}
	return &Validator{verifier: verifier}
}

// CheckTransaction validates tx against view and returns its fee.  The
// checks run in order and stop at the first failure:
//
//  1. every input resolves to an output in view
//  2. every input signature verifies against the resolved output's address
//  3. no outpoint is claimed twice by tx
//  4. no output value is negative
//  5. the input total covers the output total
//
// The returned error is a RuleError.  view is only read.
func (v *Validator) CheckTransaction(tx *Transaction, view UtxoView) (Amount, error) {
	if tx == nil {
		return 0, ruleError(ErrMalformedTx, "transaction is nil")
	}

	var totalIn Amount
	claimed := make(map[Outpoint]struct{}, len(tx.inputs))
	for i, in := range tx.inputs {
		op := in.PreviousOutPoint
		prevOut, ok := view.Get(op)
		if !ok {
			str := fmt.Sprintf("input %d of transaction %v references "+
				"missing or spent output %v", i, tx.hash, op)
			return 0, ruleError(ErrMissingInput, str)
		}

		payload, err := tx.SigningPayload(i)
		if err != nil {
			return 0, ruleError(ErrMalformedTx, err.Error())
		}
		if !v.verifier.Verify(prevOut.Address, payload, in.Signature) {
			str := fmt.Sprintf("signature of input %d of transaction %v "+
				"does not unlock %v", i, tx.hash, op)
			return 0, ruleError(ErrBadSignature, str)
		}

		if _, ok := claimed[op]; ok {
			str := fmt.Sprintf("transaction %v claims output %v more "+
				"than once", tx.hash, op)
			return 0, ruleError(ErrDuplicateInput, str)
		}
		claimed[op] = struct{}{}

		if totalIn, err = totalIn.Add(prevOut.Value); err != nil {
			return 0, err
		}
	}

	var totalOut Amount
	for i, out := range tx.outputs {
		if out.Value < 0 {
			str := fmt.Sprintf("output %d of transaction %v has negative "+
				"value %d", i, tx.hash, out.Value)
			return 0, ruleError(ErrNegativeOutput, str)
		}

		var err error
		if totalOut, err = totalOut.Add(out.Value); err != nil {
			return 0, err
		}
	}

	if totalIn < totalOut {
		str := fmt.Sprintf("transaction %v spends %d but its inputs only "+
			"provide %d", tx.hash, totalOut, totalIn)
		return 0, ruleError(ErrInsufficientFunds, str)
	}

	// Both totals are non-negative here, so the difference can not
	// overflow.
	return totalIn - totalOut, nil
}

// IsValid reports whether tx passes CheckTransaction against view.
func (v *Validator) IsValid(tx *Transaction, view UtxoView) bool {
	_, err := v.CheckTransaction(tx, view)
	return err == nil
}
