package rewardcurve

import (
	"math/big"
	"testing"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

func testRewardCurve() *rewardCurve {
	return New(&chainconfig.RewardParams{
		Offset:     10,
		Distance:   50,
		Milestones: []*big.Int{big.NewInt(500), big.NewInt(400), big.NewInt(300)},
	}, big.NewInt(100000)).(*rewardCurve)
}

func TestReward(t *testing.T) {
	rc := testRewardCurve()
	tests := []struct {
		height                 uint64
		expectedMilestoneIndex int
		expectedReward         int64
	}{
		{height: 1, expectedMilestoneIndex: 0, expectedReward: 0},
		{height: 9, expectedMilestoneIndex: 0, expectedReward: 0},
		{height: 10, expectedMilestoneIndex: 0, expectedReward: 500},
		{height: 59, expectedMilestoneIndex: 0, expectedReward: 500},
		{height: 60, expectedMilestoneIndex: 1, expectedReward: 400},
		{height: 109, expectedMilestoneIndex: 1, expectedReward: 400},
		{height: 110, expectedMilestoneIndex: 2, expectedReward: 300},
		{height: 1000000, expectedMilestoneIndex: 2, expectedReward: 300},
	}
	for _, test := range tests {
		milestoneIndex, err := rc.MilestoneIndex(test.height)
		if err != nil {
			t.Fatalf("TestReward: MilestoneIndex(%d) unexpectedly failed: %s", test.height, err)
		}
		if milestoneIndex != test.expectedMilestoneIndex {
			t.Fatalf("TestReward: height %d: expected milestone %d, got %d",
				test.height, test.expectedMilestoneIndex, milestoneIndex)
		}
		reward, err := rc.Reward(test.height)
		if err != nil {
			t.Fatalf("TestReward: Reward(%d) unexpectedly failed: %s", test.height, err)
		}
		if reward.Int64() != test.expectedReward {
			t.Fatalf("TestReward: height %d: expected reward %d, got %s", test.height, test.expectedReward, reward)
		}
	}
}

func TestInvalidHeight(t *testing.T) {
	rc := testRewardCurve()
	if _, err := rc.MilestoneIndex(0); !errors.Is(err, ruleerrors.ErrInvalidHeight) {
		t.Fatalf("TestInvalidHeight: MilestoneIndex: expected ErrInvalidHeight, got %v", err)
	}
	if _, err := rc.Reward(0); !errors.Is(err, ruleerrors.ErrInvalidHeight) {
		t.Fatalf("TestInvalidHeight: Reward: expected ErrInvalidHeight, got %v", err)
	}
	if _, err := rc.Supply(0); !errors.Is(err, ruleerrors.ErrInvalidHeight) {
		t.Fatalf("TestInvalidHeight: Supply: expected ErrInvalidHeight, got %v", err)
	}
}

func TestSupply(t *testing.T) {
	rc := testRewardCurve()
	tests := []struct {
		height         uint64
		expectedSupply int64
	}{
		{height: 9, expectedSupply: 100000},
		{height: 10, expectedSupply: 100000 + 500},
		{height: 59, expectedSupply: 100000 + 50*500},
		{height: 60, expectedSupply: 100000 + 50*500 + 400},
		{height: 110, expectedSupply: 100000 + 50*500 + 50*400 + 300},
		{height: 210, expectedSupply: 100000 + 50*500 + 50*400 + 101*300},
	}
	for _, test := range tests {
		supply, err := rc.Supply(test.height)
		if err != nil {
			t.Fatalf("TestSupply: Supply(%d) unexpectedly failed: %s", test.height, err)
		}
		if supply.Int64() != test.expectedSupply {
			t.Fatalf("TestSupply: height %d: expected supply %d, got %s", test.height, test.expectedSupply, supply)
		}
	}
}

// TestRewardMonotonicity checks that the reward is constant inside a
// milestone, that supply never decreases, and that consecutive supplies
// differ exactly by the reward.
func TestRewardMonotonicity(t *testing.T) {
	rc := testRewardCurve()
	previousSupply, err := rc.Supply(1)
	if err != nil {
		t.Fatalf("TestRewardMonotonicity: Supply unexpectedly failed: %s", err)
	}
	previousReward, err := rc.Reward(1)
	if err != nil {
		t.Fatalf("TestRewardMonotonicity: Reward unexpectedly failed: %s", err)
	}
	previousMilestone, _ := rc.MilestoneIndex(1)

	for height := uint64(2); height < 400; height++ {
		supply, err := rc.Supply(height)
		if err != nil {
			t.Fatalf("TestRewardMonotonicity: Supply(%d) unexpectedly failed: %s", height, err)
		}
		reward, err := rc.Reward(height)
		if err != nil {
			t.Fatalf("TestRewardMonotonicity: Reward(%d) unexpectedly failed: %s", height, err)
		}
		milestone, _ := rc.MilestoneIndex(height)

		if supply.Cmp(previousSupply) < 0 {
			t.Fatalf("TestRewardMonotonicity: supply decreased at height %d: %s < %s", height, supply, previousSupply)
		}
		if difference := new(big.Int).Sub(supply, previousSupply); difference.Cmp(reward) != 0 {
			t.Fatalf("TestRewardMonotonicity: supply at height %d grew by %s, expected the reward %s",
				height, difference, reward)
		}
		if milestone == previousMilestone && height > rc.offset && reward.Cmp(previousReward) != 0 {
			t.Fatalf("TestRewardMonotonicity: reward changed inside milestone %d at height %d", milestone, height)
		}

		previousSupply, previousReward, previousMilestone = supply, reward, milestone
	}
}
