package model

import "math/big"

// RewardCurve maps heights to block rewards and cumulative supply
type RewardCurve interface {
	MilestoneIndex(height uint64) (int, error)
	Reward(height uint64) (*big.Int, error)
	Supply(height uint64) (*big.Int, error)
}
