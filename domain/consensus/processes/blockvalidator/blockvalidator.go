package blockvalidator

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/infrastructure/logger"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is structurally valid
type blockValidator struct {
	params *chainconfig.Params

	slots                model.SlotOracle
	rewardCurve          model.RewardCurve
	transactionProcessor model.TransactionProcessor
}

// New instantiates a new BlockValidator
func New(params *chainconfig.Params,
	slots model.SlotOracle,
	rewardCurve model.RewardCurve,
	transactionProcessor model.TransactionProcessor) model.BlockValidator {

	return &blockValidator{
		params:               params,
		slots:                slots,
		rewardCurve:          rewardCurve,
		transactionProcessor: transactionProcessor,
	}
}

// ValidateBlock runs every structural check of block. lastBlock is the
// tip that block extends, or nil when unknown. The id of block is
// recomputed from its content and overwritten.
func (v *blockValidator) ValidateBlock(block *externalapi.Block, lastBlock *externalapi.Block) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBlock")
	defer onEnd()

	err := v.setBlockID(block)
	if err != nil {
		return err
	}

	err = v.checkBlockVersion(block)
	if err != nil {
		return err
	}

	err = v.checkBlockSignature(block)
	if err != nil {
		return err
	}

	err = v.checkPreviousBlock(block)
	if err != nil {
		return err
	}

	err = v.checkBlockReward(block)
	if err != nil {
		return err
	}

	err = v.checkBlockPayload(block)
	if err != nil {
		return err
	}

	return v.checkBlockSlot(block, lastBlock)
}
