package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// BlockVerifier checks a block against persisted chain state
type BlockVerifier interface {
	VerifyBlock(dbContext DBReader, block *externalapi.Block) error
}
