package txpool

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
	"github.com/pkg/errors"
)

// currentSlot is the slot the test clock starts in
const currentSlot = 10

type testContext struct {
	params    *chainconfig.Params
	clock     *testutils.ManualClock
	consensus consensus.Consensus
	pool      *TxPool
	holder    *signing.KeyPair
}

func setupTest(t *testing.T, testName string, cfg *Config) (tc *testContext, teardown func()) {
	params := testutils.NewTestParams(&chainconfig.DevnetParams)
	clock := testutils.NewManualClock(params.EpochTime.Add(currentSlot * params.BlockTime))

	c, teardownFunc, err := consensus.NewFactory().NewTestConsensus(
		&consensus.Config{Params: *params, Clock: clock}, testName)
	if err != nil {
		t.Fatalf("%s: NewTestConsensus: %+v", testName, err)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tc = &testContext{
		params:    params,
		clock:     clock,
		consensus: c,
		pool:      New(cfg, params, c, c.Slots(), clock),
		holder:    testutils.HolderKeyPair(params),
	}
	return tc, func() { teardownFunc(false) }
}

func (tc *testContext) transfer(amount int64) *externalapi.Transaction {
	return testutils.NewTransfer(tc.params, tc.holder, "1L", amount, 1)
}

func (tc *testContext) submit(t *testing.T, tx *externalapi.Transaction) {
	err := tc.pool.ProcessUnconfirmedTransaction(tx, false)
	if err != nil {
		t.Fatalf("submit: ProcessUnconfirmedTransaction of %s unexpectedly failed: %+v", tx.ID, err)
	}
}

func (tc *testContext) expectQueue(t *testing.T, tx *externalapi.Transaction, expected Queue) {
	_, queue, ok := tc.pool.Get(tx.ID)
	if !ok {
		t.Fatalf("expectQueue: transaction %s is not in the pool", tx.ID)
	}
	if queue != expected {
		t.Fatalf("expectQueue: expected transaction %s to be %s, got %s", tx.ID, expected, queue)
	}
}

func (tc *testContext) generateBlock(t *testing.T, transactions []*externalapi.Transaction) *externalapi.Block {
	slot := tc.consensus.Slots().CurrentSlot()
	forger := testutils.NewBlockForger(tc.params, tc.clock)
	keyPair, err := forger.ForgerKeyPair(tc.consensus.LastBlock().Height+1, slot)
	if err != nil {
		t.Fatalf("generateBlock: ForgerKeyPair: %s", err)
	}
	block, err := tc.consensus.GenerateBlock(keyPair, tc.consensus.Slots().SlotTime(slot), transactions)
	if err != nil {
		t.Fatalf("generateBlock: GenerateBlock: %+v", err)
	}
	return block
}

func TestProcessUnconfirmedTransaction(t *testing.T) {
	tc, teardown := setupTest(t, "TestProcessUnconfirmedTransaction", nil)
	defer teardown()

	tx := tc.transfer(100)
	tc.submit(t, tx)
	tc.expectQueue(t, tx, QueueVerified)

	err := tc.pool.ProcessUnconfirmedTransaction(tx, false)
	if !IsRejectCode(err, RejectAlreadyProcessed) {
		t.Fatalf("TestProcessUnconfirmedTransaction: expected %s, got %v", RejectAlreadyProcessed, err)
	}

	future := testutils.NewTransfer(tc.params, tc.holder, "1L", 100, 1000)
	err = tc.pool.ProcessUnconfirmedTransaction(future, false)
	if !IsRejectCode(err, RejectFutureTimestamp) {
		t.Fatalf("TestProcessUnconfirmedTransaction: expected %s, got %v", RejectFutureTimestamp, err)
	}

	pauper := signing.KeyPairFromSecret("pauper")
	unfunded := testutils.NewTransfer(tc.params, pauper, "1L", 100, 1)
	err = tc.pool.ProcessUnconfirmedTransaction(unfunded, false)
	if !errors.Is(err, ruleerrors.ErrInsufficientBalance) {
		t.Fatalf("TestProcessUnconfirmedTransaction: expected ErrInsufficientBalance, got %v", err)
	}
	if !IsRejectCode(err, RejectInvalid) {
		t.Fatalf("TestProcessUnconfirmedTransaction: expected %s, got %v", RejectInvalid, err)
	}

	counts := tc.pool.Counts()
	if counts != (Counts{Verified: 1}) {
		t.Fatalf("TestProcessUnconfirmedTransaction: unexpected counts %s", spew.Sdump(counts))
	}
	if tc.pool.Has(future.ID) || tc.pool.Has(unfunded.ID) {
		t.Fatalf("TestProcessUnconfirmedTransaction: rejected transactions must not be queued")
	}
}

func TestPoolFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueueSize = 2
	tc, teardown := setupTest(t, "TestPoolFull", cfg)
	defer teardown()

	tc.submit(t, tc.transfer(1))
	tc.submit(t, tc.transfer(2))

	overflow := tc.transfer(3)
	err := tc.pool.ProcessUnconfirmedTransaction(overflow, false)
	if !IsRejectCode(err, RejectPoolFull) {
		t.Fatalf("TestPoolFull: expected %s, got %v", RejectPoolFull, err)
	}
	if tc.pool.Has(overflow.ID) {
		t.Fatalf("TestPoolFull: the overflowing transaction must not be queued")
	}

	err = tc.pool.AddBundledTransactions([]*externalapi.Transaction{tc.transfer(4), tc.transfer(5), tc.transfer(6)})
	if !IsRejectCode(err, RejectPoolFull) {
		t.Fatalf("TestPoolFull: expected %s for the bundle, got %v", RejectPoolFull, err)
	}
	if tc.pool.Counts().Received != 2 {
		t.Fatalf("TestPoolFull: expected 2 received transactions, got %d", tc.pool.Counts().Received)
	}
}

func TestFillPool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReceivedBatchSize = 2
	tc, teardown := setupTest(t, "TestFillPool", cfg)
	defer teardown()

	first := tc.transfer(1)
	unfunded := testutils.NewTransfer(tc.params, signing.KeyPairFromSecret("pauper"), "1L", 1, 1)
	second := tc.transfer(2)
	err := tc.pool.AddBundledTransactions([]*externalapi.Transaction{first, unfunded, second, first})
	if err != nil {
		t.Fatalf("TestFillPool: AddBundledTransactions: %+v", err)
	}
	if tc.pool.Counts().Received != 3 {
		t.Fatalf("TestFillPool: expected 3 received transactions, got %d", tc.pool.Counts().Received)
	}

	tc.pool.FillPool()
	tc.expectQueue(t, first, QueueReady)
	tc.expectQueue(t, second, QueueReceived)
	if tc.pool.Has(unfunded.ID) {
		t.Fatalf("TestFillPool: expected the unfunded transaction to be dropped")
	}

	tc.pool.FillPool()
	tc.expectQueue(t, second, QueueReady)
	if counts := tc.pool.Counts(); counts != (Counts{Ready: 2}) {
		t.Fatalf("TestFillPool: unexpected counts %s", spew.Sdump(counts))
	}
}

func TestConfirmedAndDeletedBlocks(t *testing.T) {
	tc, teardown := setupTest(t, "TestConfirmedAndDeletedBlocks", nil)
	defer teardown()

	tx := tc.transfer(100)
	tc.submit(t, tx)

	block := tc.generateBlock(t, tc.pool.GetMergedTransactionList(0))
	if len(block.Transactions) != 1 || block.Transactions[0].ID != tx.ID {
		t.Fatalf("TestConfirmedAndDeletedBlocks: expected the pool transaction to be forged")
	}
	tc.pool.OnConfirmedBlock(block)
	if tc.pool.Has(tx.ID) {
		t.Fatalf("TestConfirmedAndDeletedBlocks: expected the confirmed transaction to leave the pool")
	}
	err := tc.pool.ProcessUnconfirmedTransaction(tx, false)
	if !IsRejectCode(err, RejectAlreadyProcessed) {
		t.Fatalf("TestConfirmedAndDeletedBlocks: expected %s for a confirmed transaction, got %v",
			RejectAlreadyProcessed, err)
	}

	_, err = tc.consensus.DeleteLastBlock()
	if err != nil {
		t.Fatalf("TestConfirmedAndDeletedBlocks: DeleteLastBlock: %+v", err)
	}
	tc.pool.OnDeletedBlock(block)
	tc.expectQueue(t, tx, QueueVerified)
}

func TestProcessSignature(t *testing.T) {
	tc, teardown := setupTest(t, "TestProcessSignature", nil)
	defer teardown()

	err := tc.pool.ProcessSignature("123", nil, nil)
	if !IsRejectCode(err, RejectNotFound) {
		t.Fatalf("TestProcessSignature: expected %s, got %v", RejectNotFound, err)
	}

	first := signing.KeyPairFromSecret("first member")
	second := signing.KeyPairFromSecret("second member")
	outsider := signing.KeyPairFromSecret("outsider")
	registration := testutils.NewMultisignatureRegistration(tc.params, tc.holder, 2, 1,
		[]*signing.KeyPair{first, second}, 1)
	tc.submit(t, registration)
	tc.expectQueue(t, registration, QueuePending)
	if len(tc.pool.GetMergedTransactionList(0)) != 0 {
		t.Fatalf("TestProcessSignature: a transaction waiting for co-signatures must not be listed")
	}

	sign := func(keyPair *signing.KeyPair) error {
		signature, err := signing.MultisignTransaction(registration, keyPair)
		if err != nil {
			t.Fatalf("TestProcessSignature: MultisignTransaction: %s", err)
		}
		return tc.pool.ProcessSignature(registration.ID, keyPair.PublicKey, signature)
	}

	err = sign(outsider)
	if !errors.Is(err, ruleerrors.ErrInvalidMultisignature) {
		t.Fatalf("TestProcessSignature: expected ErrInvalidMultisignature, got %v", err)
	}

	err = sign(first)
	if err != nil {
		t.Fatalf("TestProcessSignature: first co-signature: %+v", err)
	}
	tc.expectQueue(t, registration, QueuePending)

	err = sign(first)
	if !errors.Is(err, ruleerrors.ErrInvalidMultisignature) {
		t.Fatalf("TestProcessSignature: expected a repeated co-signature to fail, got %v", err)
	}

	err = sign(second)
	if err != nil {
		t.Fatalf("TestProcessSignature: second co-signature: %+v", err)
	}
	tc.expectQueue(t, registration, QueueReady)

	listed := tc.pool.GetMergedTransactionList(0)
	if len(listed) != 1 || len(listed[0].Signatures) != 2 {
		t.Fatalf("TestProcessSignature: expected the co-signed registration to be listed, got %s",
			spew.Sdump(listed))
	}
}

func TestGetMergedTransactionList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTransactionsPerQuery = 3
	tc, teardown := setupTest(t, "TestGetMergedTransactionList", cfg)
	defer teardown()

	ready := tc.transfer(1)
	tc.submit(t, ready)
	tc.pool.FillPool()
	tc.expectQueue(t, ready, QueueReady)

	verified := []*externalapi.Transaction{tc.transfer(2), tc.transfer(3), tc.transfer(4)}
	for _, tx := range verified {
		tc.submit(t, tx)
	}

	listed := tc.pool.GetMergedTransactionList(0)
	if len(listed) != 3 {
		t.Fatalf("TestGetMergedTransactionList: expected the list to be capped at 3, got %d", len(listed))
	}
	if listed[0].ID != ready.ID || listed[1].ID != verified[0].ID || listed[2].ID != verified[1].ID {
		t.Fatalf("TestGetMergedTransactionList: unexpected order %s", spew.Sdump(listed))
	}

	listed = tc.pool.GetMergedTransactionList(2)
	if len(listed) != 2 {
		t.Fatalf("TestGetMergedTransactionList: expected 2 transactions, got %d", len(listed))
	}
	listed = tc.pool.GetMergedTransactionList(10)
	if len(listed) != 3 {
		t.Fatalf("TestGetMergedTransactionList: expected a limit above the maximum to be capped, got %d",
			len(listed))
	}
}

func TestTransactionExpiry(t *testing.T) {
	tc, teardown := setupTest(t, "TestTransactionExpiry", nil)
	defer teardown()
	tc.params.UnconfirmedTransactionTimeout = 2 * time.Hour

	tx := tc.transfer(1)
	tc.submit(t, tx)
	registration := testutils.NewMultisignatureRegistration(tc.params, tc.holder, 1, 1,
		[]*signing.KeyPair{signing.KeyPairFromSecret("member")}, 1)
	tc.submit(t, registration)
	tc.expectQueue(t, registration, QueuePending)

	tc.clock.Advance(time.Hour + time.Second)
	tc.pool.FillPool()
	if tc.pool.Has(registration.ID) {
		t.Fatalf("TestTransactionExpiry: expected the registration to expire after its declared lifetime")
	}
	if !tc.pool.Has(tx.ID) {
		t.Fatalf("TestTransactionExpiry: expected transaction %s to outlive the registration", tx.ID)
	}

	tc.clock.Advance(time.Hour)
	tc.pool.FillPool()
	if tc.pool.Has(tx.ID) {
		t.Fatalf("TestTransactionExpiry: expected transaction %s to expire", tx.ID)
	}
}

func TestTransactionsToRelay(t *testing.T) {
	tc, teardown := setupTest(t, "TestTransactionsToRelay", nil)
	defer teardown()

	relayed := tc.transfer(1)
	err := tc.pool.ProcessUnconfirmedTransaction(relayed, true)
	if err != nil {
		t.Fatalf("TestTransactionsToRelay: ProcessUnconfirmedTransaction: %+v", err)
	}
	tc.submit(t, tc.transfer(2))

	toRelay := tc.pool.TransactionsToRelay()
	if len(toRelay) != 1 || toRelay[0].ID != relayed.ID {
		t.Fatalf("TestTransactionsToRelay: expected only %s to be relayed, got %s", relayed.ID, spew.Sdump(toRelay))
	}
	if len(tc.pool.TransactionsToRelay()) != 0 {
		t.Fatalf("TestTransactionsToRelay: expected every transaction to be relayed once")
	}
}

func TestStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FillInterval = time.Millisecond
	tc, teardown := setupTest(t, "TestStartStop", cfg)
	defer teardown()

	tx := tc.transfer(1)
	tc.submit(t, tx)
	tc.pool.Start()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, queue, _ := tc.pool.Get(tx.ID)
		if queue == QueueReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("TestStartStop: expected the fill cycle to ready transaction %s", tx.ID)
		}
		time.Sleep(time.Millisecond)
	}
	tc.pool.Stop()
}
