package rewardcurve

import (
	"math/big"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

type rewardCurve struct {
	offset      uint64
	distance    uint64
	milestones  []*big.Int
	totalAmount *big.Int
}

// New instantiates a new RewardCurve over the given reward schedule and
// genesis supply
func New(rewardParams *chainconfig.RewardParams, totalAmount *big.Int) model.RewardCurve {
	return &rewardCurve{
		offset:      rewardParams.Offset,
		distance:    rewardParams.Distance,
		milestones:  rewardParams.Milestones,
		totalAmount: totalAmount,
	}
}

// MilestoneIndex returns the index of the milestone the given height falls
// in. Heights past the last milestone stay on it.
func (rc *rewardCurve) MilestoneIndex(height uint64) (int, error) {
	if height == 0 {
		return 0, errors.Wrapf(ruleerrors.ErrInvalidHeight, "height 0 is not a block height")
	}
	if height < rc.offset {
		return 0, nil
	}

	location := (height - rc.offset) / rc.distance
	lastMilestoneIndex := uint64(len(rc.milestones) - 1)
	if location > lastMilestoneIndex {
		return int(lastMilestoneIndex), nil
	}
	return int(location), nil
}

// Reward returns the reward of the block at the given height
func (rc *rewardCurve) Reward(height uint64) (*big.Int, error) {
	milestoneIndex, err := rc.MilestoneIndex(height)
	if err != nil {
		return nil, err
	}
	if height < rc.offset {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(rc.milestones[milestoneIndex]), nil
}

// Supply returns the total supply once the block at the given height is
// applied
func (rc *rewardCurve) Supply(height uint64) (*big.Int, error) {
	milestoneIndex, err := rc.MilestoneIndex(height)
	if err != nil {
		return nil, err
	}

	supply := new(big.Int).Set(rc.totalAmount)
	if height < rc.offset {
		return supply, nil
	}

	remaining := height - rc.offset + 1
	for i := 0; i <= milestoneIndex; i++ {
		var amount uint64
		if remaining < rc.distance {
			amount = remaining
			remaining = 0
		} else {
			amount = rc.distance
			remaining -= rc.distance
			// Everything past the schedule is paid at the last milestone
			if remaining > 0 && i == len(rc.milestones)-1 {
				amount += remaining
				remaining = 0
			}
		}
		milestoneSupply := new(big.Int).Mul(new(big.Int).SetUint64(amount), rc.milestones[i])
		supply.Add(supply, milestoneSupply)
	}
	return supply, nil
}
