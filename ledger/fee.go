package ledger

// CalcFee returns the sum of the input values of tx minus the sum of its
// output values, as seen from view.  It is a ranking key only and performs
// none of the validity checks.
//
// ok is false when an input does not resolve in view or a sum overflows.
// Such a transaction can not be admitted against view as is, so it must rank
// below every transaction whose fee is known instead of being treated as a
// zero or partial fee.
func CalcFee(tx *Transaction, view UtxoView) (fee Amount, ok bool) {
	if tx == nil {
		return 0, false
	}

	var totalIn Amount
	for _, in := range tx.inputs {
		prevOut, found := view.Get(in.PreviousOutPoint)
		if !found {
			return 0, false
		}
		var err error
		if totalIn, err = totalIn.Add(prevOut.Value); err != nil {
			return 0, false
		}
	}

	var totalOut Amount
	for _, out := range tx.outputs {
		var err error
		if totalOut, err = totalOut.Add(out.Value); err != nil {
			return 0, false
		}
	}

	fee, err := totalIn.Sub(totalOut)
	if err != nil {
		return 0, false
	}
	return fee, true
}
