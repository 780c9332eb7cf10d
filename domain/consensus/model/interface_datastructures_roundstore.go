package model

// RoundStore represents a store of round bookkeeping records
type RoundStore interface {
	Save(dbContext DBWriter, record *RoundRecord) error
	Delete(dbContext DBWriter, round uint64) error
	Round(dbContext DBReader, round uint64) (*RoundRecord, error)
	Clear(dbContext DBWriter) error
}
