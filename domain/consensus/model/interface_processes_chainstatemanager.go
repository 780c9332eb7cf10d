package model

import (
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
)

// ChainStateManager owns the tip. Every operation that moves the tip is
// rejected while another one is in flight.
type ChainStateManager interface {
	Init() error

	ReceiveBlock(block *externalapi.Block) (ForkChoiceOutcome, error)
	GenerateBlock(keyPair *signing.KeyPair, timestamp uint32,
		transactions []*externalapi.Transaction) (*externalapi.Block, error)
	DeleteLastBlock() (*externalapi.Block, error)
	Rebuild(options *RebuildOptions) (*externalapi.Block, error)
	RecoverInvalidOwnChain() (*externalapi.Block, error)

	// LastBlock returns the tip. The returned block must not be modified.
	LastBlock() *externalapi.Block
	LastBlockIDs() []string
	Broadhash() string
	IsActive() bool

	UpdateLastReceipt()
	LastReceipt() time.Time
	IsStale() bool
}
