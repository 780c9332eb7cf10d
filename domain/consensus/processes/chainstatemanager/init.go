package chainstatemanager

import (
	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/pkg/errors"
)

// Init saves and applies the genesis block of an empty database, checks
// the genesis block of an existing one, finishes an interrupted rebuild and
// loads the tip
func (csm *chainStateManager) Init() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Init")
	defer onEnd()

	end, err := csm.begin()
	if err != nil {
		return err
	}
	defer end()

	genesis := csm.params.GenesisBlock
	persistedGenesis, err := csm.blockStore.BlockByHeight(csm.databaseContext, genesis.Height)
	switch {
	case database.IsNotFoundError(err):
		log.Infof("Initializing the chain with genesis block %s", genesis.ID)
		err = csm.initGenesis()
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case persistedGenesis.ID != genesis.ID:
		return errors.Wrapf(ruleerrors.ErrInvalidGenesisBlock,
			"the database holds genesis block %s, expected %s for %s",
			persistedGenesis.ID, genesis.ID, csm.params.Name)
	}

	rebuiltTip, err := csm.blockProcessor.ResumeRebuild(nil)
	if err != nil {
		return err
	}
	if rebuiltTip != nil {
		log.Infof("Finished the interrupted rebuild at height %d", rebuiltTip.Height)
	}

	lastBlock, err := csm.blockStore.LastBlock(csm.databaseContext)
	if err != nil {
		return err
	}
	err = csm.setTip(lastBlock, nil)
	if err != nil {
		return err
	}

	log.Infof("Loaded tip %s at height %d", lastBlock.ID, lastBlock.Height)
	return nil
}

func (csm *chainStateManager) initGenesis() error {
	dbTx, err := csm.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = csm.ledgerMutator.SaveGenesisBlock(dbTx, csm.params.GenesisBlock)
	if err != nil {
		return err
	}
	err = csm.ledgerMutator.ApplyGenesisBlock(dbTx, csm.params.GenesisBlock)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}
