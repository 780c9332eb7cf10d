package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// TransactionStatus is the outcome of verifying or applying a single
// transaction
type TransactionStatus int

// Transaction statuses
const (
	TransactionStatusOK TransactionStatus = iota
	TransactionStatusPending
	TransactionStatusFail
)

func (s TransactionStatus) String() string {
	switch s {
	case TransactionStatusOK:
		return "OK"
	case TransactionStatusPending:
		return "PENDING"
	case TransactionStatusFail:
		return "FAIL"
	}
	return "unknown"
}

// TransactionResult is the per-transaction result of a batch operation
type TransactionResult struct {
	TransactionID string
	Status        TransactionStatus
	Errors        []error
}

// TransactionProcessor verifies, applies and undoes transactions. Batch
// operations process transactions in order, so that later transactions
// observe the effects of earlier ones on the given state.
type TransactionProcessor interface {
	// ValidateTransactions runs the stateless checks
	ValidateTransactions(transactions []*externalapi.Transaction) []*TransactionResult

	// CheckAllowedTransactions checks that each transaction type is
	// allowed at the given height
	CheckAllowedTransactions(transactions []*externalapi.Transaction, height uint64) []*TransactionResult

	// VerifyTransactions applies transactions to state and reports
	// PENDING for multisignature transactions missing co-signatures.
	// The caller is expected to drop state afterwards.
	VerifyTransactions(state AccountState, transactions []*externalapi.Transaction) []*TransactionResult

	ApplyTransactions(state AccountState, transactions []*externalapi.Transaction,
		skipBalanceCheck bool) []*TransactionResult
	UndoTransactions(state AccountState, transactions []*externalapi.Transaction) []*TransactionResult

	// VerifyCoSignature checks that signature is a valid co-signature
	// of transaction by a member of the keys group that must approve it
	VerifyCoSignature(state AccountState, transaction *externalapi.Transaction,
		publicKey []byte, signature []byte) error
}
