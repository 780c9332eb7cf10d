package consensushashing

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// BlockSigningBytes returns the canonical encoding of block without its
// signature
func BlockSigningBytes(block *externalapi.Block) ([]byte, error) {
	w := &byteWriter{}
	writeBlockHeader(w, block)
	blockBytes, err := w.bytes()
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidBlockEncoding, "cannot encode block: %s", err)
	}
	return blockBytes, nil
}

// BlockBytes returns the canonical encoding of block including its
// signature
func BlockBytes(block *externalapi.Block) ([]byte, error) {
	w := &byteWriter{}
	writeBlockHeader(w, block)
	w.writeBytes(block.BlockSignature)
	blockBytes, err := w.bytes()
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidBlockEncoding, "cannot encode block: %s", err)
	}
	return blockBytes, nil
}

func writeBlockHeader(w *byteWriter, block *externalapi.Block) {
	w.writeUint32(block.Version)
	w.writeUint32(block.Timestamp)
	w.writeUint64(block.Height)
	w.writeNumericID("previous block id", block.PreviousBlockID)
	w.writeUint32(block.NumberOfTransactions)
	w.writeAmount("total amount", block.TotalAmount)
	w.writeAmount("total fee", block.TotalFee)
	w.writeAmount("reward", block.Reward)
	w.writeUint32(block.PayloadLength)
	w.writeBytes(block.PayloadHash)
	w.writeBytes(block.GeneratorPublicKey)
	w.writeUint64(block.PrevotedConfirmedUptoHeight)
}

// BlockSigningHash returns the digest signed by the block generator
func BlockSigningHash(block *externalapi.Block) ([]byte, error) {
	blockBytes, err := BlockSigningBytes(block)
	if err != nil {
		return nil, err
	}
	return HashBytes(blockBytes), nil
}

// BlockID computes the id of block from its signed encoding
func BlockID(block *externalapi.Block) (string, error) {
	blockBytes, err := BlockBytes(block)
	if err != nil {
		return "", err
	}
	return numericIDString(HashBytes(blockBytes)), nil
}
