package roundstore

import (
	"encoding/binary"

	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/database/serialization"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/pkg/errors"
)

var bucket = database.MakeBucket([]byte("rounds"))

// roundStore represents a store of round records
type roundStore struct {
}

// New instantiates a new RoundStore
func New() model.RoundStore {
	return &roundStore{}
}

// Save persists record
func (rs *roundStore) Save(dbContext model.DBWriter, record *model.RoundRecord) error {
	recordBytes, err := serialization.Marshal(serialization.RoundRecordToDbRoundRecord(record))
	if err != nil {
		return errors.WithStack(err)
	}
	return dbContext.Put(rs.roundAsKey(record.Round), recordBytes)
}

// Delete removes the record of the given round
func (rs *roundStore) Delete(dbContext model.DBWriter, round uint64) error {
	return dbContext.Delete(rs.roundAsKey(round))
}

// Round gets the record of the given round
func (rs *roundStore) Round(dbContext model.DBReader, round uint64) (*model.RoundRecord, error) {
	recordBytes, err := dbContext.Get(rs.roundAsKey(round))
	if err != nil {
		return nil, err
	}
	dbRecord := &serialization.DbRoundRecord{}
	err = serialization.Unmarshal(recordBytes, dbRecord)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return serialization.DbRoundRecordToRoundRecord(dbRecord)
}

// Clear removes every round record
func (rs *roundStore) Clear(dbContext model.DBWriter) error {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return err
	}
	var keys []model.DBKey
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			cursor.Close()
			return err
		}
		keys = append(keys, key)
	}
	err = cursor.Close()
	if err != nil {
		return err
	}

	for _, key := range keys {
		err = dbContext.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}

func (rs *roundStore) roundAsKey(round uint64) model.DBKey {
	var roundBytes [8]byte
	binary.BigEndian.PutUint64(roundBytes[:], round)
	return bucket.Key(roundBytes[:])
}
