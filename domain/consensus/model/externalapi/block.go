package externalapi

import (
	"bytes"
	"math/big"
	"time"
)

// Block represents a dposd block
type Block struct {
	Version                     uint32
	Height                      uint64
	ID                          string
	PreviousBlockID             string
	Timestamp                   uint32
	GeneratorPublicKey          []byte
	BlockSignature              []byte
	PayloadHash                 []byte
	PayloadLength               uint32
	NumberOfTransactions        uint32
	TotalAmount                 *big.Int
	TotalFee                    *big.Int
	Reward                      *big.Int
	PrevotedConfirmedUptoHeight uint64
	Transactions                []*Transaction

	// ReceivedAt is set only for blocks received over the network. It is
	// never persisted.
	ReceivedAt *time.Time
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Block{0, 0, "", "", 0, []byte{}, []byte{}, []byte{}, 0, 0,
	&big.Int{}, &big.Int{}, &big.Int{}, 0, []*Transaction{}, &time.Time{}}

// Clone returns a clone of Block
func (block *Block) Clone() *Block {
	transactionClone := make([]*Transaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		transactionClone[i] = tx.Clone()
	}

	var receivedAt *time.Time
	if block.ReceivedAt != nil {
		receivedAtClone := *block.ReceivedAt
		receivedAt = &receivedAtClone
	}

	return &Block{
		Version:                     block.Version,
		Height:                      block.Height,
		ID:                          block.ID,
		PreviousBlockID:             block.PreviousBlockID,
		Timestamp:                   block.Timestamp,
		GeneratorPublicKey:          cloneBytes(block.GeneratorPublicKey),
		BlockSignature:              cloneBytes(block.BlockSignature),
		PayloadHash:                 cloneBytes(block.PayloadHash),
		PayloadLength:               block.PayloadLength,
		NumberOfTransactions:        block.NumberOfTransactions,
		TotalAmount:                 cloneBigInt(block.TotalAmount),
		TotalFee:                    cloneBigInt(block.TotalFee),
		Reward:                      cloneBigInt(block.Reward),
		PrevotedConfirmedUptoHeight: block.PrevotedConfirmedUptoHeight,
		Transactions:                transactionClone,
		ReceivedAt:                  receivedAt,
	}
}

// Equal returns whether block equals to other. ReceivedAt is not compared
// since it is not part of the block's identity.
func (block *Block) Equal(other *Block) bool {
	if block == nil || other == nil {
		return block == other
	}

	if block.Version != other.Version ||
		block.Height != other.Height ||
		block.ID != other.ID ||
		block.PreviousBlockID != other.PreviousBlockID ||
		block.Timestamp != other.Timestamp ||
		block.PayloadLength != other.PayloadLength ||
		block.NumberOfTransactions != other.NumberOfTransactions ||
		block.PrevotedConfirmedUptoHeight != other.PrevotedConfirmedUptoHeight {
		return false
	}

	if !bytes.Equal(block.GeneratorPublicKey, other.GeneratorPublicKey) ||
		!bytes.Equal(block.BlockSignature, other.BlockSignature) ||
		!bytes.Equal(block.PayloadHash, other.PayloadHash) {
		return false
	}

	if !bigIntEqual(block.TotalAmount, other.TotalAmount) ||
		!bigIntEqual(block.TotalFee, other.TotalFee) ||
		!bigIntEqual(block.Reward, other.Reward) {
		return false
	}

	if len(block.Transactions) != len(other.Transactions) {
		return false
	}
	for i, tx := range block.Transactions {
		if !tx.Equal(other.Transactions[i]) {
			return false
		}
	}

	return true
}

// IsGenesis returns whether the block is the genesis block
func (block *Block) IsGenesis() bool {
	return block.Height == 1
}

// TransactionIDs returns the ids of the block's transactions in block order
func (block *Block) TransactionIDs() []string {
	ids := make([]string, len(block.Transactions))
	for i, tx := range block.Transactions {
		ids[i] = tx.ID
	}
	return ids
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return clone
}

func cloneBigInt(n *big.Int) *big.Int {
	if n == nil {
		return nil
	}
	return new(big.Int).Set(n)
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
