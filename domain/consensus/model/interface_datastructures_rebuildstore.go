package model

// RebuildStore tracks an unfinished replay of the persisted chain
type RebuildStore interface {
	Stage(dbContext DBWriter, height uint64) error
	ReplayedHeight(dbContext DBReader) (height uint64, found bool, err error)
	Delete(dbContext DBWriter) error
}
