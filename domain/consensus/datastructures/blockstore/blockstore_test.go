package blockstore_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/datastructures/blockstore"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
)

func buildChain(t *testing.T, length int) (*chainconfig.Params, []*externalapi.Block) {
	params := testutils.NewTestParams(&chainconfig.DevnetParams)
	forger := testutils.NewBlockForger(params, testutils.NewManualClock(params.EpochTime))
	holder := testutils.HolderKeyPair(params)

	chain := []*externalapi.Block{params.GenesisBlock}
	for i := 1; i < length; i++ {
		transfer := testutils.NewTransfer(params, holder, "1L", int64(i), 1)
		block, err := forger.ForgeBlock(chain[i-1], uint64(i), []*externalapi.Transaction{transfer})
		if err != nil {
			t.Fatalf("buildChain: ForgeBlock at height %d: %+v", i+1, err)
		}
		chain = append(chain, block)
	}
	return params, chain
}

func TestBlockStore(t *testing.T) {
	db, teardown := testutils.NewTestDatabase(t)
	defer teardown()

	_, chain := buildChain(t, 4)
	store := blockstore.New()

	_, err := store.LastBlock(db)
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestBlockStore: expected LastBlock of an empty store to be not found, got %v", err)
	}

	for _, block := range chain {
		err := store.Save(db, block)
		if err != nil {
			t.Fatalf("TestBlockStore: Save of %s: %+v", block.ID, err)
		}
	}

	for _, block := range chain {
		stored, err := store.Block(db, block.ID)
		if err != nil {
			t.Fatalf("TestBlockStore: Block %s: %+v", block.ID, err)
		}
		if !stored.Equal(block) {
			t.Fatalf("TestBlockStore: block %s changed on the way through the store. Want: %s, got: %s",
				block.ID, spew.Sdump(block), spew.Sdump(stored))
		}
		byHeight, err := store.BlockByHeight(db, block.Height)
		if err != nil {
			t.Fatalf("TestBlockStore: BlockByHeight %d: %+v", block.Height, err)
		}
		if byHeight.ID != block.ID {
			t.Fatalf("TestBlockStore: expected %s at height %d, got %s", block.ID, block.Height, byHeight.ID)
		}
	}

	last, err := store.LastBlock(db)
	if err != nil {
		t.Fatalf("TestBlockStore: LastBlock: %+v", err)
	}
	if last.ID != chain[3].ID {
		t.Fatalf("TestBlockStore: expected last block %s, got %s", chain[3].ID, last.ID)
	}

	ids, err := store.LastBlockIDs(db, 2)
	if err != nil {
		t.Fatalf("TestBlockStore: LastBlockIDs: %+v", err)
	}
	if len(ids) != 2 || ids[0] != chain[3].ID || ids[1] != chain[2].ID {
		t.Fatalf("TestBlockStore: unexpected last block ids %v", ids)
	}

	blocks, err := store.BlocksByHeightRange(db, 2, 10)
	if err != nil {
		t.Fatalf("TestBlockStore: BlocksByHeightRange: %+v", err)
	}
	if len(blocks) != 3 || blocks[0].ID != chain[1].ID || blocks[2].ID != chain[3].ID {
		t.Fatalf("TestBlockStore: unexpected blocks in height range 2..10")
	}

	transactionID := chain[3].Transactions[0].ID
	confirmed, err := store.IsTransactionConfirmed(db, transactionID)
	if err != nil {
		t.Fatalf("TestBlockStore: IsTransactionConfirmed: %+v", err)
	}
	if !confirmed {
		t.Fatalf("TestBlockStore: expected transaction %s to be confirmed", transactionID)
	}

	err = store.Delete(db, chain[3])
	if err != nil {
		t.Fatalf("TestBlockStore: Delete: %+v", err)
	}
	has, err := store.HasBlock(db, chain[3].ID)
	if err != nil {
		t.Fatalf("TestBlockStore: HasBlock: %+v", err)
	}
	if has {
		t.Fatalf("TestBlockStore: deleted block %s is still stored", chain[3].ID)
	}
	confirmed, err = store.IsTransactionConfirmed(db, transactionID)
	if err != nil {
		t.Fatalf("TestBlockStore: IsTransactionConfirmed: %+v", err)
	}
	if confirmed {
		t.Fatalf("TestBlockStore: transaction %s of a deleted block is still confirmed", transactionID)
	}
	last, err = store.LastBlock(db)
	if err != nil {
		t.Fatalf("TestBlockStore: LastBlock: %+v", err)
	}
	if last.ID != chain[2].ID {
		t.Fatalf("TestBlockStore: expected last block %s after delete, got %s", chain[2].ID, last.ID)
	}
}
