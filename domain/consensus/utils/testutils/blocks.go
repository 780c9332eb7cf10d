package testutils

import (
	"math/big"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/processes/forgereligibility"
	"github.com/dposnet/dposd/domain/consensus/processes/rewardcurve"
	"github.com/dposnet/dposd/domain/consensus/processes/slots"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
)

// BlockForger builds correctly forged blocks on top of arbitrary tips
type BlockForger struct {
	params      *chainconfig.Params
	slots       model.SlotOracle
	eligibility model.ForgerEligibility
	rewardCurve model.RewardCurve
}

// NewBlockForger returns a BlockForger for the given network. The clock
// only matters to callers reading the current slot from Slots.
func NewBlockForger(params *chainconfig.Params, clock model.Clock) *BlockForger {
	slotOracle := slots.New(params, clock)
	return &BlockForger{
		params:      params,
		slots:       slotOracle,
		eligibility: forgereligibility.New(params.GenesisDelegatePublicKeys(), slotOracle),
		rewardCurve: rewardcurve.New(&params.RewardParams, params.TotalAmount),
	}
}

// Slots returns the slot oracle the forger schedules with
func (f *BlockForger) Slots() model.SlotOracle {
	return f.slots
}

// ForgerKeyPair returns the key pair of the delegate scheduled for slot
// at height
func (f *BlockForger) ForgerKeyPair(height uint64, slot uint64) (*signing.KeyPair, error) {
	publicKey, err := f.eligibility.ForgerForSlot(height, slot)
	if err != nil {
		return nil, err
	}
	return DelegateKeyPair(f.params, publicKey)
}

// ForgeBlock returns a block extending lastBlock in slot, signed by the
// delegate scheduled for it
func (f *BlockForger) ForgeBlock(lastBlock *externalapi.Block, slot uint64,
	transactions []*externalapi.Transaction) (*externalapi.Block, error) {

	keyPair, err := f.ForgerKeyPair(lastBlock.Height+1, slot)
	if err != nil {
		return nil, err
	}
	return f.ForgeBlockWithKeyPair(lastBlock, slot, keyPair, transactions)
}

// ForgeBlockWithKeyPair returns a block extending lastBlock in slot, signed
// by keyPair whether or not it is scheduled
func (f *BlockForger) ForgeBlockWithKeyPair(lastBlock *externalapi.Block, slot uint64, keyPair *signing.KeyPair,
	transactions []*externalapi.Transaction) (*externalapi.Block, error) {

	height := lastBlock.Height + 1
	reward, err := f.rewardCurve.Reward(height)
	if err != nil {
		return nil, err
	}
	block := &externalapi.Block{
		Version:         f.params.BlockVersion,
		Height:          height,
		PreviousBlockID: lastBlock.ID,
		Timestamp:       f.slots.SlotTime(slot),
		Reward:          reward,
		Transactions:    transactions,
	}
	err = Reseal(block, keyPair)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// Reseal recomputes the payload fields, the signature and the id of block
// after its content was modified
func Reseal(block *externalapi.Block, keyPair *signing.KeyPair) error {
	payloadHash, payloadLength, err := consensushashing.PayloadHash(block.Transactions)
	if err != nil {
		return err
	}
	totalAmount, totalFee := consensushashing.TransactionTotals(block.Transactions)
	block.PayloadHash = payloadHash
	block.PayloadLength = payloadLength
	block.NumberOfTransactions = uint32(len(block.Transactions))
	block.TotalAmount = totalAmount
	block.TotalFee = totalFee
	if block.Reward == nil {
		block.Reward = big.NewInt(0)
	}

	err = signing.SignBlock(block, keyPair)
	if err != nil {
		return err
	}
	block.ID, err = consensushashing.BlockID(block)
	return err
}
