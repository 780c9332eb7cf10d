package model

import "math/big"

// RoundRecord is the bookkeeping of a single forging round
type RoundRecord struct {
	Round uint64

	// Forgers holds the hex encoded generator public keys of the round's
	// blocks, in application order.
	Forgers []string

	// Fees collected by the round's blocks. They are shared between the
	// forgers once the last block of the round is applied.
	Fees *big.Int

	// Rewards credited to the round's forgers.
	Rewards *big.Int
}

// NewRoundRecord returns an empty record for the given round
func NewRoundRecord(round uint64) *RoundRecord {
	return &RoundRecord{
		Round:   round,
		Fees:    big.NewInt(0),
		Rewards: big.NewInt(0),
	}
}

// Clone returns a clone of RoundRecord
func (r *RoundRecord) Clone() *RoundRecord {
	forgers := make([]string, len(r.Forgers))
	copy(forgers, r.Forgers)
	return &RoundRecord{
		Round:   r.Round,
		Forgers: forgers,
		Fees:    new(big.Int).Set(r.Fees),
		Rewards: new(big.Int).Set(r.Rewards),
	}
}
