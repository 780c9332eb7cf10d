package consensus

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/datastructures/accountstore"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/notifications"
)

// Consensus maintains the current core state of the node
type Consensus interface {
	model.ChainStateManager

	Params() *chainconfig.Params
	Slots() model.SlotOracle
	NotificationQueue() *notifications.Queue

	GetBlock(blockID string) (*externalapi.Block, error)
	GetBlockByHeight(height uint64) (*externalapi.Block, error)
	GetAccount(address string) (account *externalapi.Account, found bool, err error)
	IsTransactionConfirmed(transactionID string) (bool, error)

	// ForgerForSlot returns the public key of the delegate scheduled to
	// forge the block extending the tip in slot
	ForgerForSlot(slot uint64) ([]byte, error)

	ValidateTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult

	// CheckAllowedTransactions checks the transaction types against the
	// height of the next block
	CheckAllowedTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult

	// VerifyTransactions verifies transactions in order on top of the
	// current ledger. Nothing is written.
	VerifyTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult
	VerifyCoSignature(transaction *externalapi.Transaction, publicKey []byte, signature []byte) error
}

type consensus struct {
	model.ChainStateManager

	params          *chainconfig.Params
	databaseContext model.DBManager

	slots                model.SlotOracle
	transactionProcessor model.TransactionProcessor
	forgerEligibility    model.ForgerEligibility
	notificationQueue    *notifications.Queue

	blockStore   model.BlockStore
	accountStore model.AccountStore
}

func (s *consensus) Params() *chainconfig.Params {
	return s.params
}

func (s *consensus) Slots() model.SlotOracle {
	return s.slots
}

func (s *consensus) NotificationQueue() *notifications.Queue {
	return s.notificationQueue
}

func (s *consensus) GetBlock(blockID string) (*externalapi.Block, error) {
	return s.blockStore.Block(s.databaseContext, blockID)
}

func (s *consensus) GetBlockByHeight(height uint64) (*externalapi.Block, error) {
	return s.blockStore.BlockByHeight(s.databaseContext, height)
}

func (s *consensus) GetAccount(address string) (*externalapi.Account, bool, error) {
	return accountstore.NewStagingState(s.accountStore, s.databaseContext).Account(address)
}

func (s *consensus) IsTransactionConfirmed(transactionID string) (bool, error) {
	return s.blockStore.IsTransactionConfirmed(s.databaseContext, transactionID)
}

func (s *consensus) ForgerForSlot(slot uint64) ([]byte, error) {
	return s.forgerEligibility.ForgerForSlot(s.nextHeight(), slot)
}

func (s *consensus) ValidateTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult {
	return s.transactionProcessor.ValidateTransactions(transactions)
}

func (s *consensus) CheckAllowedTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult {
	return s.transactionProcessor.CheckAllowedTransactions(transactions, s.nextHeight())
}

func (s *consensus) VerifyTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult {
	state := accountstore.NewStagingState(s.accountStore, s.databaseContext)
	return s.transactionProcessor.VerifyTransactions(state, transactions)
}

func (s *consensus) VerifyCoSignature(transaction *externalapi.Transaction, publicKey []byte, signature []byte) error {
	state := accountstore.NewStagingState(s.accountStore, s.databaseContext)
	return s.transactionProcessor.VerifyCoSignature(state, transaction, publicKey, signature)
}

func (s *consensus) nextHeight() uint64 {
	lastBlock := s.LastBlock()
	if lastBlock == nil {
		return s.params.GenesisBlock.Height + 1
	}
	return lastBlock.Height + 1
}
