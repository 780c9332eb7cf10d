package blockvalidator

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/pkg/errors"
)

func (v *blockValidator) setBlockID(block *externalapi.Block) error {
	id, err := consensushashing.BlockID(block)
	if err != nil {
		return err
	}
	if block.ID != "" && block.ID != id {
		log.Debugf("Block at height %d declared id %s, computed %s", block.Height, block.ID, id)
	}
	block.ID = id
	return nil
}

func (v *blockValidator) checkBlockVersion(block *externalapi.Block) error {
	if block.Version != v.params.BlockVersion {
		return errors.Wrapf(ruleerrors.ErrInvalidBlockVersion, "block %s has version %d, expected %d",
			block.ID, block.Version, v.params.BlockVersion)
	}
	return nil
}

func (v *blockValidator) checkBlockSignature(block *externalapi.Block) error {
	valid, err := signing.VerifyBlockSignature(block)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrInvalidSignature, "block %s has an invalid signature", block.ID)
	}
	return nil
}

func (v *blockValidator) checkPreviousBlock(block *externalapi.Block) error {
	switch {
	case block.Height == 0:
		return errors.Wrapf(ruleerrors.ErrInvalidHeight, "block %s has height 0", block.ID)
	case block.IsGenesis() && block.PreviousBlockID != "":
		return errors.Wrapf(ruleerrors.ErrInvalidPreviousBlock, "genesis block %s declares previous block %s",
			block.ID, block.PreviousBlockID)
	case !block.IsGenesis() && block.PreviousBlockID == "":
		return errors.Wrapf(ruleerrors.ErrInvalidPreviousBlock, "block %s at height %d has no previous block",
			block.ID, block.Height)
	}
	return nil
}

func (v *blockValidator) checkBlockReward(block *externalapi.Block) error {
	if v.params.IsRewardException(block.ID) {
		log.Debugf("Skipping reward validation of block %s", block.ID)
		return nil
	}

	expectedReward, err := v.rewardCurve.Reward(block.Height)
	if err != nil {
		return err
	}
	if block.Reward == nil || block.Reward.Cmp(expectedReward) != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidReward, "block %s has reward %v, expected %s",
			block.ID, block.Reward, expectedReward)
	}
	return nil
}
