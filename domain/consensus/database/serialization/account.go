package serialization

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"google.golang.org/protobuf/encoding/protowire"
)

// DbAccount is the persisted form of an account
type DbAccount struct {
	Address           string
	Balance           string
	IsDelegate        bool
	Username          string
	ProducedBlocks    uint64
	Rewards           string
	Fees              string
	Votes             []string
	MultisigKeysGroup []string
	MultisigMin       uint8
	MultisigLifetime  uint8
}

// AccountToDbAccount converts Account to DbAccount
func AccountToDbAccount(account *externalapi.Account) *DbAccount {
	return &DbAccount{
		Address:           account.Address,
		Balance:           bigIntToDecimalString(account.Balance),
		IsDelegate:        account.IsDelegate,
		Username:          account.Username,
		ProducedBlocks:    account.ProducedBlocks,
		Rewards:           bigIntToDecimalString(account.Rewards),
		Fees:              bigIntToDecimalString(account.Fees),
		Votes:             account.Votes,
		MultisigKeysGroup: account.MultisigKeysGroup,
		MultisigMin:       account.MultisigMin,
		MultisigLifetime:  account.MultisigLifetime,
	}
}

// DbAccountToAccount converts DbAccount to Account
func DbAccountToAccount(dbAccount *DbAccount) (*externalapi.Account, error) {
	balance, err := decimalStringToBigInt(dbAccount.Balance)
	if err != nil {
		return nil, err
	}
	rewards, err := decimalStringToBigInt(dbAccount.Rewards)
	if err != nil {
		return nil, err
	}
	fees, err := decimalStringToBigInt(dbAccount.Fees)
	if err != nil {
		return nil, err
	}
	return &externalapi.Account{
		Address:           dbAccount.Address,
		Balance:           balance,
		IsDelegate:        dbAccount.IsDelegate,
		Username:          dbAccount.Username,
		ProducedBlocks:    dbAccount.ProducedBlocks,
		Rewards:           rewards,
		Fees:              fees,
		Votes:             dbAccount.Votes,
		MultisigKeysGroup: dbAccount.MultisigKeysGroup,
		MultisigMin:       dbAccount.MultisigMin,
		MultisigLifetime:  dbAccount.MultisigLifetime,
	}, nil
}

func (m *DbAccount) appendFields(b []byte) []byte {
	b = appendString(b, 1, m.Address)
	b = appendString(b, 2, m.Balance)
	b = appendBool(b, 3, m.IsDelegate)
	b = appendString(b, 4, m.Username)
	b = appendVarint(b, 5, m.ProducedBlocks)
	b = appendString(b, 6, m.Rewards)
	b = appendString(b, 7, m.Fees)
	b = appendRepeatedString(b, 8, m.Votes)
	b = appendRepeatedString(b, 9, m.MultisigKeysGroup)
	b = appendVarint(b, 10, uint64(m.MultisigMin))
	return appendVarint(b, 11, uint64(m.MultisigLifetime))
}

func (m *DbAccount) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Address)
	case 2:
		return consumeString(typ, b, &m.Balance)
	case 3:
		return consumeBool(typ, b, &m.IsDelegate)
	case 4:
		return consumeString(typ, b, &m.Username)
	case 5:
		return consumeUint64(typ, b, &m.ProducedBlocks)
	case 6:
		return consumeString(typ, b, &m.Rewards)
	case 7:
		return consumeString(typ, b, &m.Fees)
	case 8:
		return consumeRepeatedString(typ, b, &m.Votes)
	case 9:
		return consumeRepeatedString(typ, b, &m.MultisigKeysGroup)
	case 10:
		return consumeUint8(typ, b, &m.MultisigMin)
	case 11:
		return consumeUint8(typ, b, &m.MultisigLifetime)
	}
	return skipField(num, typ, b)
}
