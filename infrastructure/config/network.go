package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet                 bool   `long:"testnet" description:"Use the test network"`
	Devnet                  bool   `long:"devnet" description:"Use the development test network"`
	OverrideChainParamsFile string `long:"override-chain-params-file" description:"Overrides chain params (allowed only on devnet)"`

	ActiveNetParams *chainconfig.Params
}

type overrideChainParamsConfig struct {
	BlockTimeInSeconds            *int64  `json:"blockTimeInSeconds"`
	BlockSlotWindow               *uint64 `json:"blockSlotWindow"`
	BroadhashWindow               *uint64 `json:"broadhashWindow"`
	MaxTransactionsPerBlock       *int    `json:"maxTransactionsPerBlock"`
	MaxPayloadLength              *uint32 `json:"maxPayloadLength"`
	MaxVotesPerTransaction        *int    `json:"maxVotesPerTransaction"`
	MaxVotesPerAccount            *int    `json:"maxVotesPerAccount"`
	UnconfirmedTransactionTimeout *int64  `json:"unconfirmedTransactionTimeoutInSeconds"`
	RewardOffset                  *uint64 `json:"rewardOffset"`
	RewardDistance                *uint64 `json:"rewardDistance"`
}

// ResolveNetwork parses the network command line argument and sets NetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// The parameters are copied so that overrides do not leak into the
	// registered networks
	params := chainconfig.MainnetParams
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = chainconfig.TestnetParams
	}
	if networkFlags.Devnet {
		numNets++
		params = chainconfig.DevnetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, devnet) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return err
	}
	networkFlags.ActiveNetParams = &params

	return networkFlags.overrideChainParams()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chainconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideChainParams() error {
	if networkFlags.OverrideChainParamsFile == "" {
		return nil
	}

	if !networkFlags.Devnet {
		return errors.Errorf("override-chain-params-file is allowed only when using devnet")
	}

	overrideChainParamsFile, err := os.Open(networkFlags.OverrideChainParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideChainParamsFile.Close()

	decoder := json.NewDecoder(overrideChainParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideChainParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s", networkFlags.OverrideChainParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.BlockTimeInSeconds != nil {
		if *config.BlockTimeInSeconds <= 0 {
			return errors.Errorf("blockTimeInSeconds must be positive")
		}
		params.BlockTime = time.Duration(*config.BlockTimeInSeconds) * time.Second
	}

	if config.BlockSlotWindow != nil {
		params.BlockSlotWindow = *config.BlockSlotWindow
	}

	if config.BroadhashWindow != nil {
		params.BroadhashWindow = *config.BroadhashWindow
	}

	if config.MaxTransactionsPerBlock != nil {
		params.MaxTransactionsPerBlock = *config.MaxTransactionsPerBlock
	}

	if config.MaxPayloadLength != nil {
		params.MaxPayloadLength = *config.MaxPayloadLength
	}

	if config.MaxVotesPerTransaction != nil {
		params.MaxVotesPerTransaction = *config.MaxVotesPerTransaction
	}

	if config.MaxVotesPerAccount != nil {
		params.MaxVotesPerAccount = *config.MaxVotesPerAccount
	}

	if config.UnconfirmedTransactionTimeout != nil {
		params.UnconfirmedTransactionTimeout = time.Duration(*config.UnconfirmedTransactionTimeout) * time.Second
	}

	if config.RewardOffset != nil {
		params.RewardParams.Offset = *config.RewardOffset
	}

	if config.RewardDistance != nil {
		if *config.RewardDistance == 0 {
			return errors.Errorf("rewardDistance must be positive")
		}
		params.RewardParams.Distance = *config.RewardDistance
	}

	return params.RewardParams.Validate()
}
