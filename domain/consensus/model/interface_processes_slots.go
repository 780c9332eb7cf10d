package model

import "time"

// SlotOracle maps time to forging slots and heights to rounds. Timestamps
// are seconds since the chain epoch.
type SlotOracle interface {
	EpochTime(t time.Time) uint32
	CurrentEpochTime() uint32
	SlotNumber(timestamp uint32) uint64
	CurrentSlot() uint64
	SlotTime(slot uint64) uint32
	RoundNumber(height uint64) uint64
	IsLastBlockOfRound(height uint64) bool
	IsWithinForgingSlot(slot uint64, receivedAt time.Time) bool
}
