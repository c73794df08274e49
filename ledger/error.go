package ledger

import (
	"fmt"
)

// ErrorKind groups error codes by what went wrong with a transaction.
type ErrorKind int

const (
	// KindStructural covers transactions whose shape or references can not
	// be resolved against the pool.
	KindStructural ErrorKind = iota

	// KindEconomic covers transactions that resolve but break a spending
	// rule.
	KindEconomic

	// KindAmountOverflow covers value totals that do not fit an Amount.
	KindAmountOverflow
)

var kindStrings = map[ErrorKind]string{
	KindStructural:     "StructuralError",
	KindEconomic:       "EconomicInvalidity",
	KindAmountOverflow: "AmountOverflow",
}

// String returns the ErrorKind as a human-readable name.
func (k ErrorKind) String() string {
	if s := kindStrings[k]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorKind (%d)", int(k))
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrMalformedTx indicates the transaction is nil or otherwise can not
	// be inspected.
	ErrMalformedTx ErrorCode = iota

	// ErrMissingInput indicates an input references an outpoint that is
	// not in the pool, either because it was already spent or because it
	// never existed.
	ErrMissingInput

	// ErrOverwriteTx indicates admitting the transaction would overwrite
	// an output coordinate that is still unspent.
	ErrOverwriteTx

	// ErrBadSignature indicates an input signature does not verify against
	// the address of the output it spends.
	ErrBadSignature

	// ErrDuplicateInput indicates the transaction claims the same outpoint
	// more than once.
	ErrDuplicateInput

	// ErrNegativeOutput indicates an output value is below zero.
	ErrNegativeOutput

	// ErrInsufficientFunds indicates the outputs spend more than the
	// inputs provide.
	ErrInsufficientFunds

	// ErrAmountOverflow indicates an input or output total does not fit
	// in an Amount.
	ErrAmountOverflow
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMalformedTx:       "ErrMalformedTx",
	ErrMissingInput:      "ErrMissingInput",
	ErrOverwriteTx:       "ErrOverwriteTx",
	ErrBadSignature:      "ErrBadSignature",
	ErrDuplicateInput:    "ErrDuplicateInput",
	ErrNegativeOutput:    "ErrNegativeOutput",
	ErrInsufficientFunds: "ErrInsufficientFunds",
	ErrAmountOverflow:    "ErrAmountOverflow",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Kind returns the group the error code belongs to.
func (e ErrorCode) Kind() ErrorKind {
	switch e {
	case ErrMalformedTx, ErrMissingInput, ErrOverwriteTx:
		return KindStructural
	case ErrAmountOverflow:
		return KindAmountOverflow
	default:
		return KindEconomic
	}
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a transaction failed due to one of the many validation
// rules.  The caller can use type assertions to determine if a failure was
// specifically due to a rule violation and access the ErrorCode field to
// ascertain the specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// Kind returns the group of the underlying error code.
func (e RuleError) Kind() ErrorKind {
	return e.ErrorCode.Kind()
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
