package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// BlockValidator runs the stateless checks of a single block
type BlockValidator interface {
	ValidateBlock(block *externalapi.Block, lastBlock *externalapi.Block) error
	ValidateSlotWindow(block *externalapi.Block) error
	VerifyAgainstLastBlockIDs(block *externalapi.Block, lastBlockIDs []string) error
}
