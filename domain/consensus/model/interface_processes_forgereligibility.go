package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// ForgerEligibility decides which delegate may forge each slot
type ForgerEligibility interface {
	VerifyBlockForger(block *externalapi.Block) error
	ForgerForSlot(height uint64, slot uint64) ([]byte, error)
}
