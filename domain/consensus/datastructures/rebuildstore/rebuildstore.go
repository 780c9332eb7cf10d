package rebuildstore

import (
	"encoding/binary"

	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/pkg/errors"
)

var replayedHeightKey = database.MakeBucket(nil).Key([]byte("rebuild-replayed-height"))

// rebuildStore keeps the height a rebuild has replayed the ledger up to
// while the rebuild is unfinished
type rebuildStore struct {
}

// New instantiates a new RebuildStore
func New() model.RebuildStore {
	return &rebuildStore{}
}

// Stage records that the ledger is replayed up to height
func (rs *rebuildStore) Stage(dbContext model.DBWriter, height uint64) error {
	heightBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(heightBytes, height)
	return dbContext.Put(replayedHeightKey, heightBytes)
}

// ReplayedHeight returns the height of an unfinished rebuild. found is
// false when no rebuild is pending.
func (rs *rebuildStore) ReplayedHeight(dbContext model.DBReader) (height uint64, found bool, err error) {
	heightBytes, err := dbContext.Get(replayedHeightKey)
	if database.IsNotFoundError(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(heightBytes) != 8 {
		return 0, false, errors.Errorf("malformed replayed height of %d bytes", len(heightBytes))
	}
	return binary.BigEndian.Uint64(heightBytes), true, nil
}

// Delete marks the rebuild as finished
func (rs *rebuildStore) Delete(dbContext model.DBWriter) error {
	return dbContext.Delete(replayedHeightKey)
}
