package txpool

import (
	"fmt"

	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a transaction failed due to one of the pool rules or one
// of the consensus rules. The underlying error is either a TxRuleError or
// a ruleerrors.RuleError.
type RuleError struct {
	Err error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.Err == nil {
		return "<nil>"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e RuleError) Unwrap() error {
	return e.Err
}

// RejectCode represents a numeric value by which a submitter learns why a
// transaction was rejected.
type RejectCode uint8

// These constants define the various supported reject codes.
const (
	RejectInvalid          RejectCode = 0x10
	RejectAlreadyProcessed RejectCode = 0x12
	RejectFutureTimestamp  RejectCode = 0x20
	RejectPoolFull         RejectCode = 0x21
	RejectNotFound         RejectCode = 0x22
)

// Map of reject codes back strings for pretty printing.
var rejectCodeStrings = map[RejectCode]string{
	RejectInvalid:          "REJECT_INVALID",
	RejectAlreadyProcessed: "REJECT_ALREADYPROCESSED",
	RejectFutureTimestamp:  "REJECT_FUTURETIMESTAMP",
	RejectPoolFull:         "REJECT_POOLFULL",
	RejectNotFound:         "REJECT_NOTFOUND",
}

// String returns the RejectCode in human-readable form.
func (code RejectCode) String() string {
	if s, ok := rejectCodeStrings[code]; ok {
		return s
	}

	return fmt.Sprintf("Unknown RejectCode (%d)", uint8(code))
}

// TxRuleError identifies a pool rule violation. The RejectCode field
// tells the specific reason.
type TxRuleError struct {
	RejectCode  RejectCode // The code to report to the submitter
	Description string     // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e TxRuleError) Error() string {
	return e.Description
}

// txRuleError creates an underlying TxRuleError with the given a set of
// arguments and returns a RuleError that encapsulates it.
func txRuleError(c RejectCode, desc string) RuleError {
	return RuleError{
		Err: TxRuleError{RejectCode: c, Description: desc},
	}
}

func txRuleErrorf(c RejectCode, format string, args ...interface{}) RuleError {
	return txRuleError(c, fmt.Sprintf(format, args...))
}

// invalidTransactionError wraps the consensus errors a transaction failed
// with
func invalidTransactionError(transactionID string, errs []error) RuleError {
	if len(errs) == 0 {
		return txRuleErrorf(RejectInvalid, "transaction %s is invalid", transactionID)
	}
	return RuleError{Err: errors.Wrapf(errs[0], "transaction %s is invalid", transactionID)}
}

// ExtractRejectCode attempts to return a relevant reject code for a given
// error by examining the error for known types. It will return true if a
// code was successfully extracted.
func ExtractRejectCode(err error) (RejectCode, bool) {
	// Pull the underlying error out of a RuleError.
	var ruleErr RuleError
	if ok := errors.As(err, &ruleErr); ok {
		err = ruleErr.Err
	}

	var trErr TxRuleError
	if errors.As(err, &trErr) {
		return trErr.RejectCode, true
	}

	var consensusRuleErr ruleerrors.RuleError
	if errors.As(err, &consensusRuleErr) {
		switch consensusRuleErr {
		case ruleerrors.ErrTransactionAlreadyConfirmed:
			return RejectAlreadyProcessed, true
		default:
			return RejectInvalid, true
		}
	}

	return RejectInvalid, false
}

// IsRejectCode returns whether err is a pool rule error with the given
// reject code
func IsRejectCode(err error, code RejectCode) bool {
	extracted, ok := ExtractRejectCode(err)
	return ok && extracted == code
}
