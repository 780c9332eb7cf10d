package model

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/pkg/errors"
)

// ErrRebuildInterrupted is returned by a rebuild cancelled through
// RebuildOptions.ShouldCancel. The persisted blocks are kept and the replay
// resumes from the last replayed height.
var ErrRebuildInterrupted = errors.New("rebuild interrupted")

// RebuildOptions controls a replay of the persisted chain
type RebuildOptions struct {
	// BatchSize is the number of blocks loaded per storage read
	BatchSize uint64

	// UpToHeight stops the replay at the given height. Zero replays the
	// whole chain.
	UpToHeight uint64

	// ShouldCancel is polled between blocks. Returning true stops the
	// replay after the current block.
	ShouldCancel func() bool

	// OnProgress is called after every replayed block
	OnProgress func(block *externalapi.Block)
}

// BlockProcessor drives block generation, block processing and chain
// replay. It holds no tip state: the current tip is passed to every call.
type BlockProcessor interface {
	ProcessBlock(lastBlock *externalapi.Block, lastBlockIDs []string, block *externalapi.Block,
		broadcast func(block *externalapi.Block)) error
	ForgeBlock(lastBlock *externalapi.Block, keyPair *signing.KeyPair, timestamp uint32,
		transactions []*externalapi.Transaction) (*externalapi.Block, error)
	FilterTransactions(lastBlock *externalapi.Block, transactions []*externalapi.Transaction) []*externalapi.Transaction
	DeleteLastBlock(lastBlock *externalapi.Block) (*externalapi.Block, error)

	// RestoreBlock applies a block that was removed from the chain back on
	// top of lastBlock. The slot window is not enforced.
	RestoreBlock(lastBlock *externalapi.Block, block *externalapi.Block) error
	Rebuild(options *RebuildOptions) (*externalapi.Block, error)

	// ResumeRebuild finishes an interrupted rebuild. It returns nil when no
	// rebuild is pending.
	ResumeRebuild(options *RebuildOptions) (*externalapi.Block, error)
	RecoverInvalidOwnChain(lastBlock *externalapi.Block,
		onDelete func(deleted *externalapi.Block, newLastBlock *externalapi.Block)) (*externalapi.Block, error)
}
