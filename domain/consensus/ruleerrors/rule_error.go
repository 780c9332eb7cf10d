package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrInvalidHeight indicates a height that cannot belong to a block,
	// such as 0.
	ErrInvalidHeight = newRuleError("ErrInvalidHeight")

	// ErrInvalidBlockVersion indicates the block version is not the one
	// the chain accepts.
	ErrInvalidBlockVersion = newRuleError("ErrInvalidBlockVersion")

	// ErrInvalidBlockEncoding indicates the block or one of its
	// transactions cannot be encoded into its canonical byte form.
	ErrInvalidBlockEncoding = newRuleError("ErrInvalidBlockEncoding")

	// ErrInvalidSignature indicates the block signature does not verify
	// against the generator public key.
	ErrInvalidSignature = newRuleError("ErrInvalidSignature")

	// ErrInvalidPreviousBlock indicates a non-genesis block without a
	// previous block id, or a genesis block with one.
	ErrInvalidPreviousBlock = newRuleError("ErrInvalidPreviousBlock")

	// ErrInvalidReward indicates the block reward does not match the
	// reward curve and the block is not a configured exception.
	ErrInvalidReward = newRuleError("ErrInvalidReward")

	// ErrTooManyTransactions indicates the block holds more transactions
	// than a block may hold.
	ErrTooManyTransactions = newRuleError("ErrTooManyTransactions")

	// ErrPayloadTooLong indicates the block payload exceeds the maximum
	// payload length.
	ErrPayloadTooLong = newRuleError("ErrPayloadTooLong")

	// ErrTransactionCountMismatch indicates numberOfTransactions differs
	// from the actual number of transactions.
	ErrTransactionCountMismatch = newRuleError("ErrTransactionCountMismatch")

	// ErrDuplicateTransaction indicates a block contains the same
	// transaction id twice.
	ErrDuplicateTransaction = newRuleError("ErrDuplicateTransaction")

	// ErrInvalidPayloadHash indicates the hash of the transactions does
	// not match the declared payload hash.
	ErrInvalidPayloadHash = newRuleError("ErrInvalidPayloadHash")

	// ErrInvalidPayloadLength indicates the declared payload length does
	// not match the encoded transactions.
	ErrInvalidPayloadLength = newRuleError("ErrInvalidPayloadLength")

	// ErrInvalidTotalAmount indicates the summed transaction amounts do
	// not match the declared total amount.
	ErrInvalidTotalAmount = newRuleError("ErrInvalidTotalAmount")

	// ErrInvalidTotalFee indicates the summed transaction fees do not
	// match the declared total fee.
	ErrInvalidTotalFee = newRuleError("ErrInvalidTotalFee")

	// ErrInvalidBlockSlot indicates the block slot is not after the
	// tip's slot or is later than the current slot.
	ErrInvalidBlockSlot = newRuleError("ErrInvalidBlockSlot")

	// ErrBlockSlotTooOld indicates a received block whose slot is
	// outside the accepted window.
	ErrBlockSlotTooOld = newRuleError("ErrBlockSlotTooOld")

	// ErrBlockSlotInFuture indicates a received block whose slot is
	// later than the current slot.
	ErrBlockSlotInFuture = newRuleError("ErrBlockSlotInFuture")

	// ErrBlockAlreadyInChain indicates the block id is one of the last
	// block ids of the chain.
	ErrBlockAlreadyInChain = newRuleError("ErrBlockAlreadyInChain")

	// ErrBlockAlreadyExists indicates a block with the same id is already
	// persisted.
	ErrBlockAlreadyExists = newRuleError("ErrBlockAlreadyExists")

	// ErrTransactionAlreadyConfirmed indicates a block transaction is
	// already confirmed by another block.
	ErrTransactionAlreadyConfirmed = newRuleError("ErrTransactionAlreadyConfirmed")

	// ErrForgerNotEligible indicates the block generator is not the
	// delegate scheduled for the block's slot.
	ErrForgerNotEligible = newRuleError("ErrForgerNotEligible")

	// ErrCannotDeleteGenesis indicates an attempt to delete the genesis
	// block.
	ErrCannotDeleteGenesis = newRuleError("ErrCannotDeleteGenesis")

	// ErrInvalidGenesisBlock indicates the persisted genesis block does
	// not match the configured one.
	ErrInvalidGenesisBlock = newRuleError("ErrInvalidGenesisBlock")

	// ErrConcurrentProcessingRejected indicates a tip mutation was
	// attempted while another one is in flight.
	ErrConcurrentProcessingRejected = newRuleError("ErrConcurrentProcessingRejected")

	// ErrInvalidTransaction indicates a transaction fails a stateless
	// check such as its signature, id, amounts or fee.
	ErrInvalidTransaction = newRuleError("ErrInvalidTransaction")

	// ErrTransactionTypeNotAllowed indicates a transaction type that is
	// not allowed at the current height.
	ErrTransactionTypeNotAllowed = newRuleError("ErrTransactionTypeNotAllowed")

	// ErrInsufficientBalance indicates the sender cannot pay the amount
	// and fee of a transaction.
	ErrInsufficientBalance = newRuleError("ErrInsufficientBalance")

	// ErrSenderPublicKeyMismatch indicates the sender account is bound to
	// a different public key.
	ErrSenderPublicKeyMismatch = newRuleError("ErrSenderPublicKeyMismatch")

	// ErrDelegateAlreadyRegistered indicates a delegate registration from
	// an account that is already a delegate.
	ErrDelegateAlreadyRegistered = newRuleError("ErrDelegateAlreadyRegistered")

	// ErrUsernameTaken indicates a delegate registration with a username
	// that belongs to another delegate.
	ErrUsernameTaken = newRuleError("ErrUsernameTaken")

	// ErrInvalidVote indicates a malformed vote, a vote for an account
	// that is not a delegate, a repeated vote or an unvote without a vote.
	ErrInvalidVote = newRuleError("ErrInvalidVote")

	// ErrMultisignatureAlreadyRegistered indicates a multisignature
	// registration from an account that already has a keys group.
	ErrMultisignatureAlreadyRegistered = newRuleError("ErrMultisignatureAlreadyRegistered")

	// ErrInvalidMultisignature indicates a co-signature that does not
	// verify against any member of the keys group.
	ErrInvalidMultisignature = newRuleError("ErrInvalidMultisignature")

	// ErrMissingSignatures indicates a multisignature transaction that
	// does not have enough co-signatures yet.
	ErrMissingSignatures = newRuleError("ErrMissingSignatures")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// InvalidTransaction is a struct containing the id of an invalid
// transaction, and the errors explaining why it's invalid.
type InvalidTransaction struct {
	TransactionID string
	Errors        []error
}

func (invalid InvalidTransaction) String() string {
	return fmt.Sprintf("(%s: %v)", invalid.TransactionID, invalid.Errors)
}

// ErrInvalidTransactions indicates that some transactions failed to verify
// or apply
type ErrInvalidTransactions struct {
	InvalidTransactions []InvalidTransaction
}

func (e ErrInvalidTransactions) Error() string {
	return fmt.Sprint(e.InvalidTransactions)
}

// NewErrInvalidTransactions Creates a new ErrInvalidTransactions error wrapped in a RuleError
func NewErrInvalidTransactions(invalidTransactions []InvalidTransaction) error {
	return errors.WithStack(RuleError{
		message: "ErrInvalidTransactions",
		inner:   ErrInvalidTransactions{invalidTransactions},
	})
}

// IsRuleError returns whether err is or wraps a RuleError
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}
