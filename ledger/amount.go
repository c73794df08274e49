package ledger

import (
	"fmt"
	"math"
)

// Amount is a value in indivisible minor units.  It is signed so that
// transactions carrying negative outputs can be represented and rejected.
type Amount int64

// MaxAmount is the largest representable amount.
const MaxAmount = Amount(math.MaxInt64)

// Add returns a+b or an ErrAmountOverflow rule error.
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > MaxAmount-b) || (b < 0 && a < math.MinInt64-b) {
		str := fmt.Sprintf("amount %d + %d overflows", a, b)
		return 0, ruleError(ErrAmountOverflow, str)
	}
	return a + b, nil
}

// Sub returns a-b or an ErrAmountOverflow rule error.
func (a Amount) Sub(b Amount) (Amount, error) {
	if (b < 0 && a > MaxAmount+b) || (b > 0 && a < math.MinInt64+b) {
		str := fmt.Sprintf("amount %d - %d overflows", a, b)
		return 0, ruleError(ErrAmountOverflow, str)
	}
	return a - b, nil
}

// SumAmounts adds amounts, failing on the first overflow.
func SumAmounts(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, amt := range amounts {
		var err error
		if total, err = total.Add(amt); err != nil {
			return 0, err
		}
	}
	return total, nil
}
