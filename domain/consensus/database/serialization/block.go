package serialization

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"google.golang.org/protobuf/encoding/protowire"
)

// DbBlock is the persisted form of a block. ReceivedAt is never persisted.
type DbBlock struct {
	ID                          string
	Version                     uint32
	Height                      uint64
	PreviousBlockID             string
	Timestamp                   uint32
	GeneratorPublicKey          []byte
	BlockSignature              []byte
	PayloadHash                 []byte
	PayloadLength               uint32
	NumberOfTransactions        uint32
	TotalAmount                 string
	TotalFee                    string
	Reward                      string
	PrevotedConfirmedUptoHeight uint64
	Transactions                []*DbTransaction
}

// BlockToDbBlock converts Block to DbBlock
func BlockToDbBlock(block *externalapi.Block) *DbBlock {
	dbTransactions := make([]*DbTransaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		dbTransactions[i] = TransactionToDbTransaction(tx)
	}

	return &DbBlock{
		ID:                          block.ID,
		Version:                     block.Version,
		Height:                      block.Height,
		PreviousBlockID:             block.PreviousBlockID,
		Timestamp:                   block.Timestamp,
		GeneratorPublicKey:          block.GeneratorPublicKey,
		BlockSignature:              block.BlockSignature,
		PayloadHash:                 block.PayloadHash,
		PayloadLength:               block.PayloadLength,
		NumberOfTransactions:        block.NumberOfTransactions,
		TotalAmount:                 bigIntToDecimalString(block.TotalAmount),
		TotalFee:                    bigIntToDecimalString(block.TotalFee),
		Reward:                      bigIntToDecimalString(block.Reward),
		PrevotedConfirmedUptoHeight: block.PrevotedConfirmedUptoHeight,
		Transactions:                dbTransactions,
	}
}

// DbBlockToBlock converts DbBlock to Block
func DbBlockToBlock(dbBlock *DbBlock) (*externalapi.Block, error) {
	totalAmount, err := decimalStringToBigInt(dbBlock.TotalAmount)
	if err != nil {
		return nil, err
	}
	totalFee, err := decimalStringToBigInt(dbBlock.TotalFee)
	if err != nil {
		return nil, err
	}
	reward, err := decimalStringToBigInt(dbBlock.Reward)
	if err != nil {
		return nil, err
	}

	transactions := make([]*externalapi.Transaction, len(dbBlock.Transactions))
	for i, dbTransaction := range dbBlock.Transactions {
		transactions[i], err = DbTransactionToTransaction(dbTransaction)
		if err != nil {
			return nil, err
		}
	}

	return &externalapi.Block{
		Version:                     dbBlock.Version,
		Height:                      dbBlock.Height,
		ID:                          dbBlock.ID,
		PreviousBlockID:             dbBlock.PreviousBlockID,
		Timestamp:                   dbBlock.Timestamp,
		GeneratorPublicKey:          dbBlock.GeneratorPublicKey,
		BlockSignature:              dbBlock.BlockSignature,
		PayloadHash:                 dbBlock.PayloadHash,
		PayloadLength:               dbBlock.PayloadLength,
		NumberOfTransactions:        dbBlock.NumberOfTransactions,
		TotalAmount:                 totalAmount,
		TotalFee:                    totalFee,
		Reward:                      reward,
		PrevotedConfirmedUptoHeight: dbBlock.PrevotedConfirmedUptoHeight,
		Transactions:                transactions,
	}, nil
}

func (m *DbBlock) appendFields(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendVarint(b, 2, uint64(m.Version))
	b = appendVarint(b, 3, m.Height)
	b = appendString(b, 4, m.PreviousBlockID)
	b = appendVarint(b, 5, uint64(m.Timestamp))
	b = appendBytes(b, 6, m.GeneratorPublicKey)
	b = appendBytes(b, 7, m.BlockSignature)
	b = appendBytes(b, 8, m.PayloadHash)
	b = appendVarint(b, 9, uint64(m.PayloadLength))
	b = appendVarint(b, 10, uint64(m.NumberOfTransactions))
	b = appendString(b, 11, m.TotalAmount)
	b = appendString(b, 12, m.TotalFee)
	b = appendString(b, 13, m.Reward)
	b = appendVarint(b, 14, m.PrevotedConfirmedUptoHeight)
	for _, transaction := range m.Transactions {
		b = appendMessage(b, 15, transaction)
	}
	return b
}

func (m *DbBlock) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.ID)
	case 2:
		return consumeUint32(typ, b, &m.Version)
	case 3:
		return consumeUint64(typ, b, &m.Height)
	case 4:
		return consumeString(typ, b, &m.PreviousBlockID)
	case 5:
		return consumeUint32(typ, b, &m.Timestamp)
	case 6:
		return consumeBytes(typ, b, &m.GeneratorPublicKey)
	case 7:
		return consumeBytes(typ, b, &m.BlockSignature)
	case 8:
		return consumeBytes(typ, b, &m.PayloadHash)
	case 9:
		return consumeUint32(typ, b, &m.PayloadLength)
	case 10:
		return consumeUint32(typ, b, &m.NumberOfTransactions)
	case 11:
		return consumeString(typ, b, &m.TotalAmount)
	case 12:
		return consumeString(typ, b, &m.TotalFee)
	case 13:
		return consumeString(typ, b, &m.Reward)
	case 14:
		return consumeUint64(typ, b, &m.PrevotedConfirmedUptoHeight)
	case 15:
		transaction := &DbTransaction{}
		n, err := consumeMessage(typ, b, transaction)
		if err != nil {
			return 0, err
		}
		m.Transactions = append(m.Transactions, transaction)
		return n, nil
	}
	return skipField(num, typ, b)
}
