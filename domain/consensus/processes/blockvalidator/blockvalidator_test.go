package blockvalidator

import (
	"math/big"
	"testing"
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/processes/rewardcurve"
	"github.com/dposnet/dposd/domain/consensus/processes/transactionprocessor"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
	"github.com/pkg/errors"
)

type testContext struct {
	params    *chainconfig.Params
	clock     *testutils.ManualClock
	forger    *testutils.BlockForger
	validator model.BlockValidator
	holder    *signing.KeyPair
}

func setupTest() *testContext {
	params := testutils.NewTestParams(&chainconfig.DevnetParams)
	clock := testutils.NewManualClock(params.EpochTime.Add(time.Minute))
	forger := testutils.NewBlockForger(params, clock)
	validator := New(params, forger.Slots(), rewardcurve.New(&params.RewardParams, params.TotalAmount),
		transactionprocessor.New(params))
	return &testContext{
		params:    params,
		clock:     clock,
		forger:    forger,
		validator: validator,
		holder:    testutils.HolderKeyPair(params),
	}
}

// lastBlock returns a tip past the reward offset
func (tc *testContext) lastBlock() *externalapi.Block {
	lastBlock := tc.params.GenesisBlock.Clone()
	lastBlock.Height = tc.params.RewardParams.Offset + 10
	lastBlock.ID = "1234567890"
	return lastBlock
}

func (tc *testContext) forgeBlock(t *testing.T, slot uint64, transactions ...*externalapi.Transaction) (
	*externalapi.Block, *signing.KeyPair) {

	lastBlock := tc.lastBlock()
	keyPair, err := tc.forger.ForgerKeyPair(lastBlock.Height+1, slot)
	if err != nil {
		t.Fatalf("forgeBlock: ForgerKeyPair unexpectedly failed: %s", err)
	}
	block, err := tc.forger.ForgeBlockWithKeyPair(lastBlock, slot, keyPair, transactions)
	if err != nil {
		t.Fatalf("forgeBlock: ForgeBlockWithKeyPair unexpectedly failed: %s", err)
	}
	return block, keyPair
}

func (tc *testContext) transfer(amount int64, timestamp uint32) *externalapi.Transaction {
	return testutils.NewTransfer(tc.params, tc.holder, "1L", amount, timestamp)
}

// resign signs block again without recomputing its payload fields
func resign(t *testing.T, block *externalapi.Block, keyPair *signing.KeyPair) {
	err := signing.SignBlock(block, keyPair)
	if err != nil {
		t.Fatalf("resign: SignBlock unexpectedly failed: %s", err)
	}
	block.ID, err = consensushashing.BlockID(block)
	if err != nil {
		t.Fatalf("resign: BlockID unexpectedly failed: %s", err)
	}
}

func TestValidateBlock(t *testing.T) {
	tc := setupTest()
	block, _ := tc.forgeBlock(t, 2, tc.transfer(10, 1), tc.transfer(20, 2))
	expectedID := block.ID

	block.ID = "1"
	err := tc.validator.ValidateBlock(block, tc.lastBlock())
	if err != nil {
		t.Fatalf("TestValidateBlock: ValidateBlock unexpectedly failed: %s", err)
	}
	if block.ID != expectedID {
		t.Fatalf("TestValidateBlock: expected the id to be overwritten with %s, got %s", expectedID, block.ID)
	}

	err = tc.validator.ValidateBlock(block, nil)
	if err != nil {
		t.Fatalf("TestValidateBlock: ValidateBlock without a tip unexpectedly failed: %s", err)
	}
}

func TestValidateBlockErrors(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair)
		expectedError error
	}{
		{
			name: "version",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.Version++
				resign(t, block, keyPair)
			},
			expectedError: ruleerrors.ErrInvalidBlockVersion,
		},
		{
			name: "signature",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.BlockSignature[0] ^= 1
			},
			expectedError: ruleerrors.ErrInvalidSignature,
		},
		{
			name: "foreign signer",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				signature := block.BlockSignature
				resign(t, block, signing.KeyPairFromSecret("someone else"))
				block.BlockSignature = signature
			},
			expectedError: ruleerrors.ErrInvalidSignature,
		},
		{
			name: "previous block",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.PreviousBlockID = ""
				resign(t, block, keyPair)
			},
			expectedError: ruleerrors.ErrInvalidPreviousBlock,
		},
		{
			name: "reward",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.Reward = new(big.Int).Add(block.Reward, big.NewInt(1))
				resign(t, block, keyPair)
			},
			expectedError: ruleerrors.ErrInvalidReward,
		},
		{
			name: "too many transactions",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				tc.params.MaxTransactionsPerBlock = 1
			},
			expectedError: ruleerrors.ErrTooManyTransactions,
		},
		{
			name: "transaction count",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.NumberOfTransactions++
				resign(t, block, keyPair)
			},
			expectedError: ruleerrors.ErrTransactionCountMismatch,
		},
		{
			name: "duplicate transaction",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.Transactions[1] = block.Transactions[0].Clone()
				err := testutils.Reseal(block, keyPair)
				if err != nil {
					t.Fatalf("Reseal unexpectedly failed: %s", err)
				}
			},
			expectedError: ruleerrors.ErrDuplicateTransaction,
		},
		{
			name: "payload too long",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				tc.params.MaxPayloadLength = block.PayloadLength - 1
			},
			expectedError: ruleerrors.ErrPayloadTooLong,
		},
		{
			name: "tampered amount",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.Transactions[0].Amount.Add(block.Transactions[0].Amount, big.NewInt(1))
			},
			expectedError: ruleerrors.ErrInvalidPayloadHash,
		},
		{
			name: "tampered signature byte",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.Transactions[1].Signature[5] ^= 0x80
			},
			expectedError: ruleerrors.ErrInvalidPayloadHash,
		},
		{
			name: "payload length",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.PayloadLength++
				resign(t, block, keyPair)
			},
			expectedError: ruleerrors.ErrInvalidPayloadLength,
		},
		{
			name: "total amount",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.TotalAmount = big.NewInt(0)
				resign(t, block, keyPair)
			},
			expectedError: ruleerrors.ErrInvalidTotalAmount,
		},
		{
			name: "total fee",
			modify: func(t *testing.T, tc *testContext, block *externalapi.Block, keyPair *signing.KeyPair) {
				block.TotalFee = big.NewInt(0)
				resign(t, block, keyPair)
			},
			expectedError: ruleerrors.ErrInvalidTotalFee,
		},
	}

	for _, test := range tests {
		tc := setupTest()
		block, keyPair := tc.forgeBlock(t, 2, tc.transfer(10, 1), tc.transfer(20, 2))
		test.modify(t, tc, block, keyPair)

		err := tc.validator.ValidateBlock(block, tc.lastBlock())
		if !errors.Is(err, test.expectedError) {
			t.Fatalf("TestValidateBlockErrors: %s: expected %s, got %v", test.name, test.expectedError, err)
		}
	}
}

func TestInvalidTransactionInBlock(t *testing.T) {
	tc := setupTest()

	tx := tc.transfer(10, 1)
	tx.Fee = big.NewInt(1)
	err := signing.SignTransaction(tx, tc.holder)
	if err != nil {
		t.Fatalf("TestInvalidTransactionInBlock: SignTransaction unexpectedly failed: %s", err)
	}
	block, _ := tc.forgeBlock(t, 2, tx)

	err = tc.validator.ValidateBlock(block, tc.lastBlock())
	var invalidTransactions ruleerrors.ErrInvalidTransactions
	if !errors.As(err, &invalidTransactions) {
		t.Fatalf("TestInvalidTransactionInBlock: expected ErrInvalidTransactions, got %v", err)
	}
	if len(invalidTransactions.InvalidTransactions) != 1 ||
		invalidTransactions.InvalidTransactions[0].TransactionID != tx.ID {
		t.Fatalf("TestInvalidTransactionInBlock: unexpected invalid transactions %s", invalidTransactions)
	}
}

func TestRewardException(t *testing.T) {
	tc := setupTest()
	block, keyPair := tc.forgeBlock(t, 2)
	if block.Height <= tc.params.RewardParams.Offset {
		t.Fatalf("TestRewardException: the block is expected to be past the reward offset")
	}

	block.Reward = big.NewInt(1)
	resign(t, block, keyPair)
	err := tc.validator.ValidateBlock(block, tc.lastBlock())
	if !errors.Is(err, ruleerrors.ErrInvalidReward) {
		t.Fatalf("TestRewardException: expected ErrInvalidReward, got %v", err)
	}

	tc.params.RewardExceptions[block.ID] = struct{}{}
	err = tc.validator.ValidateBlock(block, tc.lastBlock())
	if err != nil {
		t.Fatalf("TestRewardException: ValidateBlock unexpectedly failed: %s", err)
	}
}

func TestBlockSlot(t *testing.T) {
	tc := setupTest()
	lastBlock := tc.lastBlock()
	lastBlock.Timestamp = tc.forger.Slots().SlotTime(2)

	sameSlot, _ := tc.forgeBlock(t, 2)
	err := tc.validator.ValidateBlock(sameSlot, lastBlock)
	if !errors.Is(err, ruleerrors.ErrInvalidBlockSlot) {
		t.Fatalf("TestBlockSlot: same slot: expected ErrInvalidBlockSlot, got %v", err)
	}

	currentSlot := tc.forger.Slots().CurrentSlot()
	future, _ := tc.forgeBlock(t, currentSlot+1)
	err = tc.validator.ValidateBlock(future, lastBlock)
	if !errors.Is(err, ruleerrors.ErrInvalidBlockSlot) {
		t.Fatalf("TestBlockSlot: future slot: expected ErrInvalidBlockSlot, got %v", err)
	}

	current, _ := tc.forgeBlock(t, currentSlot)
	err = tc.validator.ValidateBlock(current, lastBlock)
	if err != nil {
		t.Fatalf("TestBlockSlot: current slot: ValidateBlock unexpectedly failed: %s", err)
	}
}

func TestValidateSlotWindow(t *testing.T) {
	tc := setupTest()
	currentSlot := tc.forger.Slots().CurrentSlot()
	window := tc.params.BlockSlotWindow

	tests := []struct {
		slot          uint64
		expectedError error
	}{
		{slot: currentSlot},
		{slot: currentSlot - window},
		{slot: currentSlot - window - 1, expectedError: ruleerrors.ErrBlockSlotTooOld},
		{slot: currentSlot + 1, expectedError: ruleerrors.ErrBlockSlotInFuture},
	}
	for _, test := range tests {
		block, _ := tc.forgeBlock(t, test.slot)
		err := tc.validator.ValidateSlotWindow(block)
		if test.expectedError == nil {
			if err != nil {
				t.Fatalf("TestValidateSlotWindow: slot %d: unexpectedly failed: %s", test.slot, err)
			}
			continue
		}
		if !errors.Is(err, test.expectedError) {
			t.Fatalf("TestValidateSlotWindow: slot %d: expected %s, got %v", test.slot, test.expectedError, err)
		}
	}
}

func TestVerifyAgainstLastBlockIDs(t *testing.T) {
	tc := setupTest()
	block, _ := tc.forgeBlock(t, 2)

	err := tc.validator.VerifyAgainstLastBlockIDs(block, []string{"1", "2"})
	if err != nil {
		t.Fatalf("TestVerifyAgainstLastBlockIDs: unexpectedly failed: %s", err)
	}
	err = tc.validator.VerifyAgainstLastBlockIDs(block, []string{"1", block.ID})
	if !errors.Is(err, ruleerrors.ErrBlockAlreadyInChain) {
		t.Fatalf("TestVerifyAgainstLastBlockIDs: expected ErrBlockAlreadyInChain, got %v", err)
	}
}
