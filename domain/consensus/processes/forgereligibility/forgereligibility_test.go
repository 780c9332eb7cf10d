package forgereligibility

import (
	"bytes"
	"testing"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/processes/slots"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

func TestRoundDelegates(t *testing.T) {
	params := &chainconfig.DevnetParams
	delegates := params.GenesisDelegatePublicKeys()
	fe := New(delegates, slots.New(params, slots.SystemClock())).(*forgerEligibility)

	for round := uint64(1); round < 5; round++ {
		shuffled := fe.roundDelegates(round)
		if len(shuffled) != len(delegates) {
			t.Fatalf("TestRoundDelegates: round %d: expected %d delegates, got %d",
				round, len(delegates), len(shuffled))
		}
		for _, delegate := range delegates {
			found := 0
			for _, scheduled := range shuffled {
				if bytes.Equal(delegate, scheduled) {
					found++
				}
			}
			if found != 1 {
				t.Fatalf("TestRoundDelegates: round %d: delegate %x is scheduled %d times", round, delegate, found)
			}
		}

		again := fe.roundDelegates(round)
		for i := range shuffled {
			if !bytes.Equal(shuffled[i], again[i]) {
				t.Fatalf("TestRoundDelegates: round %d: shuffle is not deterministic", round)
			}
		}
	}
}

func TestVerifyBlockForger(t *testing.T) {
	params := &chainconfig.DevnetParams
	oracle := slots.New(params, slots.SystemClock())
	fe := New(params.GenesisDelegatePublicKeys(), oracle)

	const height = 2
	const slot = 7
	forger, err := fe.ForgerForSlot(height, slot)
	if err != nil {
		t.Fatalf("TestVerifyBlockForger: ForgerForSlot unexpectedly failed: %s", err)
	}

	block := &externalapi.Block{
		Height:             height,
		Timestamp:          oracle.SlotTime(slot),
		GeneratorPublicKey: forger,
	}
	err = fe.VerifyBlockForger(block)
	if err != nil {
		t.Fatalf("TestVerifyBlockForger: scheduled forger unexpectedly rejected: %s", err)
	}

	block.Timestamp = oracle.SlotTime(slot + 1)
	nextForger, err := fe.ForgerForSlot(height, slot+1)
	if err != nil {
		t.Fatalf("TestVerifyBlockForger: ForgerForSlot unexpectedly failed: %s", err)
	}
	if bytes.Equal(nextForger, forger) {
		t.Fatalf("TestVerifyBlockForger: consecutive slots of a round are expected to have different forgers")
	}
	err = fe.VerifyBlockForger(block)
	if !errors.Is(err, ruleerrors.ErrForgerNotEligible) {
		t.Fatalf("TestVerifyBlockForger: expected ErrForgerNotEligible, got %v", err)
	}
}

func TestNoDelegates(t *testing.T) {
	params := &chainconfig.DevnetParams
	fe := New(nil, slots.New(params, slots.SystemClock()))
	if _, err := fe.ForgerForSlot(1, 1); err == nil {
		t.Fatalf("TestNoDelegates: expected an error when no delegates are scheduled")
	}
}
