package chainconfig

import (
	"math/big"
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// RewardParams defines the milestone based block reward schedule
type RewardParams struct {
	// Offset is the first height that is rewarded
	Offset uint64

	// Distance is the number of heights each milestone lasts
	Distance uint64

	// Milestones are the successive per-block rewards. The last one
	// lasts forever.
	Milestones []*big.Int
}

// Validate checks that the reward schedule can be evaluated at every
// height
func (rp *RewardParams) Validate() error {
	if rp.Distance == 0 {
		return errors.New("reward distance must be positive")
	}
	if len(rp.Milestones) == 0 {
		return errors.New("the reward schedule has no milestones")
	}
	for i, milestone := range rp.Milestones {
		if milestone == nil || milestone.Sign() < 0 {
			return errors.Errorf("milestone %d is not a non-negative reward", i)
		}
	}
	return nil
}

// FeeParams defines the fixed fee of each transaction type
type FeeParams struct {
	Transfer *big.Int
	Delegate *big.Int
	Vote     *big.Int

	// Multisignature is charged once for the sender and once for every
	// member of the keys group.
	Multisignature *big.Int
}

// Params defines a dposd network by its parameters
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// EpochTime is the wall-clock instant of chain timestamp 0.
	EpochTime time.Time

	// BlockTime is the length of a forging slot.
	BlockTime time.Duration

	// ActiveDelegates is the number of delegates forging in a round, and
	// therefore the number of blocks in a round.
	ActiveDelegates uint64

	// BlockSlotWindow is how many slots behind the current one a
	// received block may be, and the size of the last block ids window.
	BlockSlotWindow uint64

	// BroadhashWindow is the number of last block ids hashed into the
	// broadhash.
	BroadhashWindow uint64

	// BlockVersion is the only block version this network accepts.
	BlockVersion uint32

	MaxTransactionsPerBlock int
	MaxPayloadLength        uint32

	// TotalAmount is the supply created by the genesis block.
	TotalAmount *big.Int

	RewardParams RewardParams
	Fees         FeeParams

	// MaxVotesPerTransaction and MaxVotesPerAccount bound vote
	// transactions.
	MaxVotesPerTransaction int
	MaxVotesPerAccount     int

	// UnconfirmedTransactionTimeout is how long a transaction may wait in
	// the pool. Multisignature transactions use their own lifetime.
	UnconfirmedTransactionTimeout time.Duration

	// TransactionTypeActivationHeights holds the first height at which
	// each transaction type is allowed. Types missing from the map are
	// never allowed.
	TransactionTypeActivationHeights map[externalapi.TransactionType]uint64

	// RewardExceptions holds ids of blocks whose reward is not checked
	// against the reward curve.
	RewardExceptions map[string]struct{}

	// InertTransactions holds ids of transactions that have no ledger
	// effect when their block is applied.
	InertTransactions map[string]struct{}

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.Block

	// GenesisDelegateSecrets holds the secrets of the genesis delegates.
	// It is only set for development networks.
	GenesisDelegateSecrets []string
}

// IsRewardException returns whether the block with the given id is exempt
// from reward validation
func (p *Params) IsRewardException(blockID string) bool {
	_, ok := p.RewardExceptions[blockID]
	return ok
}

// IsInertTransaction returns whether the transaction with the given id has
// no ledger effect
func (p *Params) IsInertTransaction(transactionID string) bool {
	_, ok := p.InertTransactions[transactionID]
	return ok
}

// IsTransactionTypeAllowed returns whether transactions of the given type
// may be included in a block at the given height
func (p *Params) IsTransactionTypeAllowed(transactionType externalapi.TransactionType, height uint64) bool {
	activationHeight, ok := p.TransactionTypeActivationHeights[transactionType]
	return ok && height >= activationHeight
}

// TransactionFee returns the fee a transaction of the given type must pay
func (p *Params) TransactionFee(tx *externalapi.Transaction) *big.Int {
	switch tx.Type {
	case externalapi.TransactionTypeTransfer:
		return new(big.Int).Set(p.Fees.Transfer)
	case externalapi.TransactionTypeDelegate:
		return new(big.Int).Set(p.Fees.Delegate)
	case externalapi.TransactionTypeVote:
		return new(big.Int).Set(p.Fees.Vote)
	case externalapi.TransactionTypeMultisignature:
		members := int64(1)
		if tx.Asset.Multisignature != nil {
			members += int64(len(tx.Asset.Multisignature.KeysGroup))
		}
		return new(big.Int).Mul(p.Fees.Multisignature, big.NewInt(members))
	}
	return nil
}

// Nethash identifies the network. It is the hex encoded payload hash of
// the genesis block.
func (p *Params) Nethash() string {
	return hexString(p.GenesisBlock.PayloadHash)
}

const (
	defaultBlockTime               = 10 * time.Second
	defaultBlockSlotWindow         = 5
	defaultBroadhashWindow         = 5
	defaultMaxTransactionsPerBlock = 25
	defaultMaxPayloadLength        = 1024 * 1024
	defaultMaxVotesPerTransaction  = 33
	defaultMaxVotesPerAccount      = 101
	defaultTransactionTimeout      = 3 * time.Hour
	blockVersion                   = 1
)

var (
	epochTime = time.Date(2016, time.May, 24, 17, 0, 0, 0, time.UTC)

	// fixedPointOne is one coin in its smallest units
	fixedPointOne = int64(100000000)

	defaultFees = FeeParams{
		Transfer:       big.NewInt(fixedPointOne / 10),
		Delegate:       big.NewInt(25 * fixedPointOne),
		Vote:           big.NewInt(fixedPointOne),
		Multisignature: big.NewInt(5 * fixedPointOne),
	}

	allTransactionTypes = map[externalapi.TransactionType]uint64{
		externalapi.TransactionTypeTransfer:       0,
		externalapi.TransactionTypeDelegate:       0,
		externalapi.TransactionTypeVote:           0,
		externalapi.TransactionTypeMultisignature: 0,
	}
)

func bigIntsFromInts(values ...int64) []*big.Int {
	result := make([]*big.Int, len(values))
	for i, value := range values {
		result[i] = big.NewInt(value)
	}
	return result
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:                    "mainnet",
	EpochTime:               epochTime,
	BlockTime:               defaultBlockTime,
	ActiveDelegates:         101,
	BlockSlotWindow:         defaultBlockSlotWindow,
	BroadhashWindow:         defaultBroadhashWindow,
	BlockVersion:            blockVersion,
	MaxTransactionsPerBlock: defaultMaxTransactionsPerBlock,
	MaxPayloadLength:        defaultMaxPayloadLength,
	TotalAmount:             genesisSupply(),
	RewardParams: RewardParams{
		Offset:     1451520,
		Distance:   3000000,
		Milestones: bigIntsFromInts(500000000, 400000000, 300000000, 200000000, 100000000),
	},
	Fees:                             defaultFees,
	MaxVotesPerTransaction:           defaultMaxVotesPerTransaction,
	MaxVotesPerAccount:               defaultMaxVotesPerAccount,
	UnconfirmedTransactionTimeout:    defaultTransactionTimeout,
	TransactionTypeActivationHeights: allTransactionTypes,
	RewardExceptions:                 map[string]struct{}{},
	InertTransactions:                map[string]struct{}{},
	GenesisBlock:                     mainnetGenesis.block,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:                    "testnet",
	EpochTime:               epochTime,
	BlockTime:               defaultBlockTime,
	ActiveDelegates:         101,
	BlockSlotWindow:         defaultBlockSlotWindow,
	BroadhashWindow:         defaultBroadhashWindow,
	BlockVersion:            blockVersion,
	MaxTransactionsPerBlock: defaultMaxTransactionsPerBlock,
	MaxPayloadLength:        defaultMaxPayloadLength,
	TotalAmount:             genesisSupply(),
	RewardParams: RewardParams{
		Offset:     2160,
		Distance:   3000000,
		Milestones: bigIntsFromInts(500000000, 400000000, 300000000, 200000000, 100000000),
	},
	Fees:                             defaultFees,
	MaxVotesPerTransaction:           defaultMaxVotesPerTransaction,
	MaxVotesPerAccount:               defaultMaxVotesPerAccount,
	UnconfirmedTransactionTimeout:    defaultTransactionTimeout,
	TransactionTypeActivationHeights: allTransactionTypes,
	RewardExceptions:                 map[string]struct{}{},
	InertTransactions:                map[string]struct{}{},
	GenesisBlock:                     testnetGenesis.block,
}

// DevnetParams defines the network parameters for the development network.
// Its delegate secrets are public so that a single node can forge every
// slot.
var DevnetParams = Params{
	Name:                    "devnet",
	EpochTime:               epochTime,
	BlockTime:               defaultBlockTime,
	ActiveDelegates:         devnetActiveDelegates,
	BlockSlotWindow:         defaultBlockSlotWindow,
	BroadhashWindow:         defaultBroadhashWindow,
	BlockVersion:            blockVersion,
	MaxTransactionsPerBlock: defaultMaxTransactionsPerBlock,
	MaxPayloadLength:        defaultMaxPayloadLength,
	TotalAmount:             genesisSupply(),
	RewardParams: RewardParams{
		Offset:     10,
		Distance:   1000,
		Milestones: bigIntsFromInts(500000000, 400000000, 300000000, 200000000, 100000000),
	},
	Fees:                             defaultFees,
	MaxVotesPerTransaction:           defaultMaxVotesPerTransaction,
	MaxVotesPerAccount:               defaultMaxVotesPerAccount,
	UnconfirmedTransactionTimeout:    defaultTransactionTimeout,
	TransactionTypeActivationHeights: allTransactionTypes,
	RewardExceptions:                 map[string]struct{}{},
	InertTransactions:                map[string]struct{}{},
	GenesisBlock:                     devnetGenesis.block,
	GenesisDelegateSecrets:           devnetGenesis.delegateSecrets,
}

var (
	// ErrUnknownNetwork describes an error where the parameters for a
	// network could not be found.
	ErrUnknownNetwork = errors.New("unknown network")

	registeredNets = map[string]*Params{
		MainnetParams.Name: &MainnetParams,
		TestnetParams.Name: &TestnetParams,
		DevnetParams.Name:  &DevnetParams,
	}
)

// ParamsForNetwork returns the parameters of the network with the given
// name
func ParamsForNetwork(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNetwork, "network %s", name)
	}
	return params, nil
}
