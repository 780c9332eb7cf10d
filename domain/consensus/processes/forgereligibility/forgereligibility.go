package forgereligibility

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// shuffleStride is the number of seed bytes consumed before the seed is
// rehashed
const shuffleStride = 4

// forgerEligibility schedules a fixed delegate list over forging slots.
// The list is shuffled once per round from a seed derived from the round
// number.
type forgerEligibility struct {
	delegates [][]byte
	slots     model.SlotOracle
}

// New instantiates a new ForgerEligibility scheduling the given delegates
func New(delegates [][]byte, slots model.SlotOracle) model.ForgerEligibility {
	delegatesCopy := make([][]byte, len(delegates))
	for i, delegate := range delegates {
		delegatesCopy[i] = append([]byte(nil), delegate...)
	}
	return &forgerEligibility{
		delegates: delegatesCopy,
		slots:     slots,
	}
}

// ForgerForSlot returns the public key of the delegate scheduled to forge
// slot in the round of height
func (fe *forgerEligibility) ForgerForSlot(height uint64, slot uint64) ([]byte, error) {
	if len(fe.delegates) == 0 {
		return nil, errors.New("no delegates are scheduled")
	}
	delegates := fe.roundDelegates(fe.slots.RoundNumber(height))
	return delegates[slot%uint64(len(delegates))], nil
}

// VerifyBlockForger checks that the generator of block was scheduled for
// the slot of its timestamp
func (fe *forgerEligibility) VerifyBlockForger(block *externalapi.Block) error {
	slot := fe.slots.SlotNumber(block.Timestamp)
	expected, err := fe.ForgerForSlot(block.Height, slot)
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, block.GeneratorPublicKey) {
		return errors.Wrapf(ruleerrors.ErrForgerNotEligible, "block %s at height %d was forged by %x, "+
			"slot %d belongs to %s", block.ID, block.Height, block.GeneratorPublicKey, slot, hex.EncodeToString(expected))
	}
	return nil
}

func (fe *forgerEligibility) roundDelegates(round uint64) [][]byte {
	delegates := make([][]byte, len(fe.delegates))
	copy(delegates, fe.delegates)

	seed := sha256.Sum256([]byte(strconv.FormatUint(round, 10)))
	count := len(delegates)
	for i := 0; i < count; {
		for x := 0; x < shuffleStride && i < count; x, i = x+1, i+1 {
			newIndex := int(seed[x]) % count
			delegates[newIndex], delegates[i] = delegates[i], delegates[newIndex]
		}
		seed = sha256.Sum256(seed[:])
	}
	return delegates
}
