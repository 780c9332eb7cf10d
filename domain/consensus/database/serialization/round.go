package serialization

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"google.golang.org/protobuf/encoding/protowire"
)

// DbRoundRecord is the persisted form of a round record
type DbRoundRecord struct {
	Round   uint64
	Forgers []string
	Fees    string
	Rewards string
}

// RoundRecordToDbRoundRecord converts RoundRecord to DbRoundRecord
func RoundRecordToDbRoundRecord(record *model.RoundRecord) *DbRoundRecord {
	return &DbRoundRecord{
		Round:   record.Round,
		Forgers: record.Forgers,
		Fees:    bigIntToDecimalString(record.Fees),
		Rewards: bigIntToDecimalString(record.Rewards),
	}
}

// DbRoundRecordToRoundRecord converts DbRoundRecord to RoundRecord
func DbRoundRecordToRoundRecord(dbRecord *DbRoundRecord) (*model.RoundRecord, error) {
	fees, err := decimalStringToBigInt(dbRecord.Fees)
	if err != nil {
		return nil, err
	}
	rewards, err := decimalStringToBigInt(dbRecord.Rewards)
	if err != nil {
		return nil, err
	}
	return &model.RoundRecord{
		Round:   dbRecord.Round,
		Forgers: dbRecord.Forgers,
		Fees:    fees,
		Rewards: rewards,
	}, nil
}

func (m *DbRoundRecord) appendFields(b []byte) []byte {
	b = appendVarint(b, 1, m.Round)
	b = appendRepeatedString(b, 2, m.Forgers)
	b = appendString(b, 3, m.Fees)
	return appendString(b, 4, m.Rewards)
}

func (m *DbRoundRecord) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeUint64(typ, b, &m.Round)
	case 2:
		return consumeRepeatedString(typ, b, &m.Forgers)
	case 3:
		return consumeString(typ, b, &m.Fees)
	case 4:
		return consumeString(typ, b, &m.Rewards)
	}
	return skipField(num, typ, b)
}
