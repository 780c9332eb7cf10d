package slots

import (
	"testing"
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time {
	return time.Time(c)
}

func TestSlots(t *testing.T) {
	params := &chainconfig.DevnetParams
	now := params.EpochTime.Add(95 * time.Second)
	oracle := New(params, fixedClock(now))

	if oracle.CurrentEpochTime() != 95 {
		t.Fatalf("TestSlots: expected epoch time 95, got %d", oracle.CurrentEpochTime())
	}
	if oracle.CurrentSlot() != 9 {
		t.Fatalf("TestSlots: expected current slot 9, got %d", oracle.CurrentSlot())
	}
	if oracle.SlotTime(9) != 90 {
		t.Fatalf("TestSlots: expected slot 9 to start at 90, got %d", oracle.SlotTime(9))
	}
	if oracle.EpochTime(params.EpochTime.Add(-time.Hour)) != 0 {
		t.Fatalf("TestSlots: times before the epoch are expected to map to 0")
	}

	if !oracle.IsWithinForgingSlot(9, now) {
		t.Fatalf("TestSlots: %s is expected to be within slot 9", now)
	}
	if oracle.IsWithinForgingSlot(8, now) {
		t.Fatalf("TestSlots: %s is not expected to be within slot 8", now)
	}
}

func TestRoundNumber(t *testing.T) {
	params := &chainconfig.DevnetParams
	oracle := New(params, SystemClock())
	delegates := params.ActiveDelegates

	tests := []struct {
		height        uint64
		expectedRound uint64
		isLast        bool
	}{
		{height: 1, expectedRound: 1, isLast: false},
		{height: delegates, expectedRound: 1, isLast: true},
		{height: delegates + 1, expectedRound: 2, isLast: false},
		{height: 3 * delegates, expectedRound: 3, isLast: true},
	}
	for _, test := range tests {
		if round := oracle.RoundNumber(test.height); round != test.expectedRound {
			t.Fatalf("TestRoundNumber: height %d: expected round %d, got %d", test.height, test.expectedRound, round)
		}
		if isLast := oracle.IsLastBlockOfRound(test.height); isLast != test.isLast {
			t.Fatalf("TestRoundNumber: height %d: expected last block of round %t, got %t",
				test.height, test.isLast, isLast)
		}
	}
}
