package consensus

import (
	"io/ioutil"
	"os"

	consensusdatabase "github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/datastructures/accountstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/blockstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/rebuildstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/roundstore"
	"github.com/dposnet/dposd/domain/consensus/notifications"
	"github.com/dposnet/dposd/domain/consensus/processes/blockprocessor"
	"github.com/dposnet/dposd/domain/consensus/processes/blockvalidator"
	"github.com/dposnet/dposd/domain/consensus/processes/blockverifier"
	"github.com/dposnet/dposd/domain/consensus/processes/chainstatemanager"
	"github.com/dposnet/dposd/domain/consensus/processes/forgereligibility"
	"github.com/dposnet/dposd/domain/consensus/processes/ledgermutator"
	"github.com/dposnet/dposd/domain/consensus/processes/rewardcurve"
	"github.com/dposnet/dposd/domain/consensus/processes/slots"
	"github.com/dposnet/dposd/domain/consensus/processes/transactionprocessor"
	"github.com/dposnet/dposd/infrastructure/db/database"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db database.Database) (Consensus, error)
	NewTestConsensus(config *Config, testName string) (
		tc Consensus, teardown func(keepDataDir bool), err error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus and initializes its chain
// state
func (f *factory) NewConsensus(config *Config, db database.Database) (Consensus, error) {
	params := &config.Params
	err := params.RewardParams.Validate()
	if err != nil {
		return nil, err
	}
	databaseContext := consensusdatabase.New(db)

	clock := config.Clock
	if clock == nil {
		clock = slots.SystemClock()
	}
	delegates := config.Delegates
	if len(delegates) == 0 {
		delegates = params.GenesisDelegatePublicKeys()
	}

	// Data Structures
	blockStore := blockstore.New()
	accountStore := accountstore.New()
	roundStore := roundstore.New()
	rebuildStore := rebuildstore.New()

	// Processes
	slotOracle := slots.New(params, clock)
	rewardCurve := rewardcurve.New(&params.RewardParams, params.TotalAmount)
	transactionProcessor := transactionprocessor.New(params)
	forgerEligibility := forgereligibility.New(delegates, slotOracle)
	blockValidator := blockvalidator.New(params,
		slotOracle,
		rewardCurve,
		transactionProcessor)
	blockVerifier := blockverifier.New(params,
		blockStore,
		accountStore,
		transactionProcessor,
		forgerEligibility)
	ledgerMutator := ledgermutator.New(params,
		slotOracle,
		transactionProcessor,
		blockStore,
		accountStore,
		roundStore)
	blockProcessor := blockprocessor.New(params,
		databaseContext,
		slotOracle,
		rewardCurve,
		blockValidator,
		blockVerifier,
		ledgerMutator,
		transactionProcessor,
		blockStore,
		accountStore,
		rebuildStore)

	notificationQueue := notifications.NewQueue()
	chainStateManager := chainstatemanager.New(params,
		databaseContext,
		clock,
		slotOracle,
		blockProcessor,
		blockValidator,
		ledgerMutator,
		blockStore,
		notificationQueue,
		config.Broadcast)

	err = chainStateManager.Init()
	if err != nil {
		return nil, err
	}

	c := &consensus{
		ChainStateManager: chainStateManager,

		params:          params,
		databaseContext: databaseContext,

		slots:                slotOracle,
		transactionProcessor: transactionProcessor,
		forgerEligibility:    forgerEligibility,
		notificationQueue:    notificationQueue,

		blockStore:   blockStore,
		accountStore: accountStore,
	}
	log.Infof("Consensus initialized for %s at height %d", params.Name, c.LastBlock().Height)
	return c, nil
}

// NewTestConsensus instantiates a new Consensus over a fresh database in a
// temporary directory. teardown closes the database and removes the
// directory unless keepDataDir is set.
func (f *factory) NewTestConsensus(config *Config, testName string) (
	tc Consensus, teardown func(keepDataDir bool), err error) {

	dataDir, err := ioutil.TempDir("", testName)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	db, err := ldb.NewLevelDB(dataDir)
	if err != nil {
		return nil, nil, err
	}

	tc, err = f.NewConsensus(config, db)
	if err != nil {
		db.Close()
		os.RemoveAll(dataDir)
		return nil, nil, err
	}

	teardown = func(keepDataDir bool) {
		db.Close()
		if !keepDataDir {
			err := os.RemoveAll(dataDir)
			if err != nil {
				log.Errorf("Error removing data directory for test consensus: %s", err)
			}
		}
	}
	return tc, teardown, nil
}
