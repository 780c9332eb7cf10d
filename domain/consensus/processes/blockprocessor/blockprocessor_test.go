package blockprocessor

import (
	"testing"
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/datastructures/accountstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/blockstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/rebuildstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/roundstore"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/processes/blockvalidator"
	"github.com/dposnet/dposd/domain/consensus/processes/blockverifier"
	"github.com/dposnet/dposd/domain/consensus/processes/forgereligibility"
	"github.com/dposnet/dposd/domain/consensus/processes/ledgermutator"
	"github.com/dposnet/dposd/domain/consensus/processes/rewardcurve"
	"github.com/dposnet/dposd/domain/consensus/processes/transactionprocessor"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
	"github.com/pkg/errors"
)

type testContext struct {
	params       *chainconfig.Params
	db           model.DBManager
	clock        *testutils.ManualClock
	forger       *testutils.BlockForger
	blockStore   model.BlockStore
	accountStore model.AccountStore
	processor    model.BlockProcessor
	holder       *signing.KeyPair
}

func setupTest(t *testing.T) (tc *testContext, teardown func()) {
	params := testutils.NewTestParams(&chainconfig.DevnetParams)
	db, teardown := testutils.NewTestDatabase(t)
	clock := testutils.NewManualClock(params.EpochTime)
	forger := testutils.NewBlockForger(params, clock)
	slots := forger.Slots()

	blockStore := blockstore.New()
	accountStore := accountstore.New()
	transactionProcessor := transactionprocessor.New(params)
	rewardCurve := rewardcurve.New(&params.RewardParams, params.TotalAmount)
	mutator := ledgermutator.New(params, slots, transactionProcessor, blockStore, accountStore, roundstore.New())
	validator := blockvalidator.New(params, slots, rewardCurve, transactionProcessor)
	verifier := blockverifier.New(params, blockStore, accountStore, transactionProcessor,
		forgereligibility.New(params.GenesisDelegatePublicKeys(), slots))

	tc = &testContext{
		params:       params,
		db:           db,
		clock:        clock,
		forger:       forger,
		blockStore:   blockStore,
		accountStore: accountStore,
		processor: New(params, db, slots, rewardCurve, validator, verifier, mutator, transactionProcessor,
			blockStore, accountStore, rebuildstore.New()),
		holder: testutils.HolderKeyPair(params),
	}

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("setupTest: Begin unexpectedly failed: %s", err)
	}
	defer dbTx.RollbackUnlessClosed()
	err = mutator.SaveGenesisBlock(dbTx, params.GenesisBlock)
	if err != nil {
		t.Fatalf("setupTest: SaveGenesisBlock unexpectedly failed: %s", err)
	}
	err = mutator.ApplyGenesisBlock(dbTx, params.GenesisBlock)
	if err != nil {
		t.Fatalf("setupTest: ApplyGenesisBlock unexpectedly failed: %+v", err)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("setupTest: Commit unexpectedly failed: %s", err)
	}
	return tc, teardown
}

// moveToSlot sets the clock to the start of slot
func (tc *testContext) moveToSlot(slot uint64) {
	tc.clock.Set(tc.params.EpochTime.Add(time.Duration(slot) * tc.params.BlockTime))
}

// extend forges and processes a block on top of lastBlock in the slot
// following it
func (tc *testContext) extend(t *testing.T, lastBlock *externalapi.Block,
	transactions ...*externalapi.Transaction) *externalapi.Block {

	slot := tc.forger.Slots().SlotNumber(lastBlock.Timestamp) + 1
	tc.moveToSlot(slot)
	block, err := tc.forger.ForgeBlock(lastBlock, slot, transactions)
	if err != nil {
		t.Fatalf("extend: ForgeBlock unexpectedly failed: %s", err)
	}
	err = tc.processor.ProcessBlock(lastBlock, nil, block, nil)
	if err != nil {
		t.Fatalf("extend: ProcessBlock at height %d unexpectedly failed: %+v", block.Height, err)
	}
	return block
}

func (tc *testContext) accounts(t *testing.T) []*externalapi.Account {
	accounts, err := tc.accountStore.Accounts(tc.db)
	if err != nil {
		t.Fatalf("accounts: Accounts unexpectedly failed: %s", err)
	}
	return accounts
}

func (tc *testContext) lastBlock(t *testing.T) *externalapi.Block {
	lastBlock, err := tc.blockStore.LastBlock(tc.db)
	if err != nil {
		t.Fatalf("lastBlock: LastBlock unexpectedly failed: %s", err)
	}
	return lastBlock
}

func requireSameAccounts(t *testing.T, testName string, expected, actual []*externalapi.Account) {
	if len(expected) != len(actual) {
		t.Fatalf("%s: expected %d accounts, got %d", testName, len(expected), len(actual))
	}
	for i := range expected {
		if !expected[i].Equal(actual[i]) {
			t.Fatalf("%s: expected account %+v, got %+v", testName, expected[i], actual[i])
		}
	}
}

func TestProcessBlock(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	lastBlock := tc.params.GenesisBlock
	slot := uint64(3)
	tc.moveToSlot(slot)
	block, err := tc.forger.ForgeBlock(lastBlock, slot,
		[]*externalapi.Transaction{testutils.NewTransfer(tc.params, tc.holder, "1L", 100, 1)})
	if err != nil {
		t.Fatalf("TestProcessBlock: ForgeBlock unexpectedly failed: %s", err)
	}

	isBroadcast := false
	broadcast := func(broadcastBlock *externalapi.Block) {
		isBroadcast = true
		exists, err := tc.blockStore.HasBlock(tc.db, broadcastBlock.ID)
		if err != nil {
			t.Fatalf("TestProcessBlock: HasBlock unexpectedly failed: %s", err)
		}
		if exists {
			t.Fatalf("TestProcessBlock: block was persisted before being broadcast")
		}
	}
	err = tc.processor.ProcessBlock(lastBlock, []string{lastBlock.ID}, block, broadcast)
	if err != nil {
		t.Fatalf("TestProcessBlock: ProcessBlock unexpectedly failed: %+v", err)
	}
	if !isBroadcast {
		t.Fatalf("TestProcessBlock: block was not broadcast")
	}
	if tc.lastBlock(t).ID != block.ID {
		t.Fatalf("TestProcessBlock: expected %s to be the last block", block.ID)
	}

	err = tc.processor.ProcessBlock(lastBlock, []string{block.ID, lastBlock.ID}, block.Clone(), nil)
	if !errors.Is(err, ruleerrors.ErrBlockAlreadyInChain) {
		t.Fatalf("TestProcessBlock: expected ErrBlockAlreadyInChain, got %v", err)
	}
}

func TestProcessBlockRejected(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	before := tc.accounts(t)
	lastBlock := tc.params.GenesisBlock
	pauper := signing.KeyPairFromSecret("pauper")

	tests := []struct {
		name          string
		slot          uint64
		clockSlot     uint64
		transactions  []*externalapi.Transaction
		expectedError error
	}{
		{
			name:          "slot too old",
			slot:          2,
			clockSlot:     2 + tc.params.BlockSlotWindow + 1,
			expectedError: ruleerrors.ErrBlockSlotTooOld,
		},
		{
			name:          "unfunded transaction",
			slot:          2,
			clockSlot:     2,
			transactions:  []*externalapi.Transaction{testutils.NewTransfer(tc.params, pauper, "1L", 100, 1)},
			expectedError: ruleerrors.ErrInsufficientBalance,
		},
	}

	for _, test := range tests {
		tc.moveToSlot(test.clockSlot)
		block, err := tc.forger.ForgeBlock(lastBlock, test.slot, test.transactions)
		if err != nil {
			t.Fatalf("TestProcessBlockRejected: %s: ForgeBlock unexpectedly failed: %s", test.name, err)
		}
		isBroadcast := false
		err = tc.processor.ProcessBlock(lastBlock, nil, block, func(*externalapi.Block) { isBroadcast = true })
		if !errors.Is(err, test.expectedError) {
			var invalidTransactions ruleerrors.ErrInvalidTransactions
			if !errors.As(err, &invalidTransactions) ||
				!errors.Is(invalidTransactions.InvalidTransactions[0].Errors[0], test.expectedError) {
				t.Fatalf("TestProcessBlockRejected: %s: expected %s, got %v", test.name, test.expectedError, err)
			}
		}
		if isBroadcast {
			t.Fatalf("TestProcessBlockRejected: %s: a rejected block was broadcast", test.name)
		}
		if tc.lastBlock(t).ID != lastBlock.ID {
			t.Fatalf("TestProcessBlockRejected: %s: the tip moved", test.name)
		}
		requireSameAccounts(t, "TestProcessBlockRejected: "+test.name, before, tc.accounts(t))
	}
}

func TestForgeBlock(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	lastBlock := tc.extend(t, tc.params.GenesisBlock)
	confirmed := testutils.NewTransfer(tc.params, tc.holder, "1L", 100, 1)
	lastBlock = tc.extend(t, lastBlock, confirmed)

	good := testutils.NewTransfer(tc.params, tc.holder, "2L", 200, 2)
	unfunded := testutils.NewTransfer(tc.params, signing.KeyPairFromSecret("pauper"), "3L", 300, 3)
	malformed := testutils.NewTransfer(tc.params, tc.holder, "4L", 400, 4)
	malformed.Signature[0] ^= 1
	delegate := testutils.NewDelegateRegistration(tc.params, tc.holder, "holder", 5)
	tc.params.TransactionTypeActivationHeights[externalapi.TransactionTypeDelegate] = 1000

	candidates := []*externalapi.Transaction{confirmed, unfunded, good, malformed, delegate}
	filtered := tc.processor.FilterTransactions(lastBlock, candidates)
	if len(filtered) != 1 || filtered[0].ID != good.ID {
		t.Fatalf("TestForgeBlock: expected only %s to be kept, got %v", good.ID, filtered)
	}

	slot := tc.forger.Slots().SlotNumber(lastBlock.Timestamp) + 1
	tc.moveToSlot(slot)
	keyPair, err := tc.forger.ForgerKeyPair(lastBlock.Height+1, slot)
	if err != nil {
		t.Fatalf("TestForgeBlock: ForgerKeyPair unexpectedly failed: %s", err)
	}
	block, err := tc.processor.ForgeBlock(lastBlock, keyPair, tc.forger.Slots().SlotTime(slot), filtered)
	if err != nil {
		t.Fatalf("TestForgeBlock: ForgeBlock unexpectedly failed: %s", err)
	}
	if block.Height != lastBlock.Height+1 || block.PreviousBlockID != lastBlock.ID {
		t.Fatalf("TestForgeBlock: block %d does not extend block %d", block.Height, lastBlock.Height)
	}

	err = tc.processor.ProcessBlock(lastBlock, nil, block, nil)
	if err != nil {
		t.Fatalf("TestForgeBlock: ProcessBlock of a forged block unexpectedly failed: %+v", err)
	}
}

func TestFilterTransactionsCapacity(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	tc.params.MaxTransactionsPerBlock = 3
	candidates := make([]*externalapi.Transaction, 5)
	for i := range candidates {
		candidates[i] = testutils.NewTransfer(tc.params, tc.holder, "1L", int64(i+1), uint32(i))
	}
	filtered := tc.processor.FilterTransactions(tc.params.GenesisBlock, candidates)
	if len(filtered) != 3 {
		t.Fatalf("TestFilterTransactionsCapacity: expected 3 transactions, got %d", len(filtered))
	}
	for i, tx := range filtered {
		if tx.ID != candidates[i].ID {
			t.Fatalf("TestFilterTransactionsCapacity: transaction %d is out of order", i)
		}
	}
}

func TestRebuild(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	lastBlock := tc.params.GenesisBlock
	for i := 0; i < 7; i++ {
		lastBlock = tc.extend(t, lastBlock, testutils.NewTransfer(tc.params, tc.holder, "1L", int64(i+1), uint32(i)))
	}
	expected := tc.accounts(t)

	var replayed []uint64
	tip, err := tc.processor.Rebuild(&model.RebuildOptions{
		BatchSize:  3,
		OnProgress: func(block *externalapi.Block) { replayed = append(replayed, block.Height) },
	})
	if err != nil {
		t.Fatalf("TestRebuild: Rebuild unexpectedly failed: %+v", err)
	}
	if tip.ID != lastBlock.ID {
		t.Fatalf("TestRebuild: expected tip %s, got %s", lastBlock.ID, tip.ID)
	}
	if len(replayed) != int(lastBlock.Height) {
		t.Fatalf("TestRebuild: expected %d replayed blocks, got %d", lastBlock.Height, len(replayed))
	}
	for i, height := range replayed {
		if height != uint64(i+1) {
			t.Fatalf("TestRebuild: expected height %d to be replayed at position %d, got %d", i+1, i, height)
		}
	}
	requireSameAccounts(t, "TestRebuild", expected, tc.accounts(t))
}

func TestRebuildUpToHeight(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	lastBlock := tc.params.GenesisBlock
	var blocks []*externalapi.Block
	for i := 0; i < 6; i++ {
		lastBlock = tc.extend(t, lastBlock)
		blocks = append(blocks, lastBlock)
	}

	tip, err := tc.processor.Rebuild(&model.RebuildOptions{BatchSize: 4, UpToHeight: 4})
	if err != nil {
		t.Fatalf("TestRebuildUpToHeight: Rebuild unexpectedly failed: %+v", err)
	}
	if tip.Height != 4 {
		t.Fatalf("TestRebuildUpToHeight: expected tip height 4, got %d", tip.Height)
	}
	if tc.lastBlock(t).ID != tip.ID {
		t.Fatalf("TestRebuildUpToHeight: blocks above the rebuilt tip were not deleted")
	}
	for _, block := range blocks[3:] {
		exists, err := tc.blockStore.HasBlock(tc.db, block.ID)
		if err != nil {
			t.Fatalf("TestRebuildUpToHeight: HasBlock unexpectedly failed: %s", err)
		}
		if exists {
			t.Fatalf("TestRebuildUpToHeight: block at height %d was not deleted", block.Height)
		}
	}
}

func TestRebuildCancel(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	lastBlock := tc.params.GenesisBlock
	for i := 0; i < 5; i++ {
		lastBlock = tc.extend(t, lastBlock, testutils.NewTransfer(tc.params, tc.holder, "1L", int64(i+1), uint32(i)))
	}
	expected := tc.accounts(t)

	replayed := 0
	_, err := tc.processor.Rebuild(&model.RebuildOptions{
		ShouldCancel: func() bool { return replayed == 3 },
		OnProgress:   func(*externalapi.Block) { replayed++ },
	})
	if !errors.Is(err, model.ErrRebuildInterrupted) {
		t.Fatalf("TestRebuildCancel: expected ErrRebuildInterrupted, got %v", err)
	}
	if tc.lastBlock(t).ID != lastBlock.ID {
		t.Fatalf("TestRebuildCancel: expected the persisted tip to stay at height %d, got %d",
			lastBlock.Height, tc.lastBlock(t).Height)
	}

	var resumed []uint64
	tip, err := tc.processor.ResumeRebuild(&model.RebuildOptions{
		OnProgress: func(block *externalapi.Block) { resumed = append(resumed, block.Height) },
	})
	if err != nil {
		t.Fatalf("TestRebuildCancel: ResumeRebuild unexpectedly failed: %+v", err)
	}
	if tip == nil || tip.ID != lastBlock.ID {
		t.Fatalf("TestRebuildCancel: expected the resumed tip to be %s", lastBlock.ID)
	}
	if len(resumed) != 3 || resumed[0] != 4 {
		t.Fatalf("TestRebuildCancel: expected heights 4 to 6 to be replayed, got %v", resumed)
	}
	requireSameAccounts(t, "TestRebuildCancel", expected, tc.accounts(t))

	tip, err = tc.processor.ResumeRebuild(nil)
	if err != nil {
		t.Fatalf("TestRebuildCancel: ResumeRebuild unexpectedly failed: %+v", err)
	}
	if tip != nil {
		t.Fatalf("TestRebuildCancel: expected no pending rebuild, got tip %s", tip.ID)
	}
}

func TestResumeRebuildNotPending(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	tc.extend(t, tc.params.GenesisBlock)
	tip, err := tc.processor.ResumeRebuild(nil)
	if err != nil {
		t.Fatalf("TestResumeRebuildNotPending: ResumeRebuild unexpectedly failed: %+v", err)
	}
	if tip != nil {
		t.Fatalf("TestResumeRebuildNotPending: expected no pending rebuild")
	}

	_, err = tc.processor.Rebuild(nil)
	if err != nil {
		t.Fatalf("TestResumeRebuildNotPending: Rebuild unexpectedly failed: %+v", err)
	}
	tip, err = tc.processor.ResumeRebuild(nil)
	if err != nil || tip != nil {
		t.Fatalf("TestResumeRebuildNotPending: expected a finished rebuild to leave nothing pending, got %v", err)
	}
}

func TestRecoverInvalidOwnChain(t *testing.T) {
	tc, teardown := setupTest(t)
	defer teardown()

	lastBlock := tc.params.GenesisBlock
	var blocks []*externalapi.Block
	for i := 0; i < 3; i++ {
		lastBlock = tc.extend(t, lastBlock)
		blocks = append(blocks, lastBlock)
	}

	var deleted []string
	onDelete := func(deletedBlock *externalapi.Block, newLastBlock *externalapi.Block) {
		if newLastBlock.ID != deletedBlock.PreviousBlockID {
			t.Fatalf("TestRecoverInvalidOwnChain: new tip %s does not precede %s", newLastBlock.ID, deletedBlock.ID)
		}
		deleted = append(deleted, deletedBlock.ID)
	}

	tip, err := tc.processor.RecoverInvalidOwnChain(lastBlock, onDelete)
	if err != nil {
		t.Fatalf("TestRecoverInvalidOwnChain: RecoverInvalidOwnChain unexpectedly failed: %+v", err)
	}
	if tip.ID != blocks[1].ID || len(deleted) != 1 {
		t.Fatalf("TestRecoverInvalidOwnChain: expected a single deletion, got %d", len(deleted))
	}

	// No block is valid under a new block version, so recovery runs down
	// to the genesis block
	tc.params.BlockVersion++
	deleted = nil
	_, err = tc.processor.RecoverInvalidOwnChain(tip, onDelete)
	if !errors.Is(err, ruleerrors.ErrCannotDeleteGenesis) {
		t.Fatalf("TestRecoverInvalidOwnChain: expected ErrCannotDeleteGenesis, got %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("TestRecoverInvalidOwnChain: expected 2 deletions, got %d", len(deleted))
	}
	if tc.lastBlock(t).ID != tc.params.GenesisBlock.ID {
		t.Fatalf("TestRecoverInvalidOwnChain: expected the genesis block to be the tip")
	}
}
