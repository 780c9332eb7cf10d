package testutils

import (
	"testing"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// ForAllNets runs the passed testFunc with all available networks. Every
// run gets its own copy of the network parameters.
func ForAllNets(t *testing.T, testFunc func(*testing.T, *chainconfig.Params)) {
	allParams := []*chainconfig.Params{
		&chainconfig.MainnetParams,
		&chainconfig.TestnetParams,
		&chainconfig.DevnetParams,
	}

	for _, params := range allParams {
		params := NewTestParams(params)
		t.Run(params.Name, func(t *testing.T) {
			t.Parallel()
			t.Logf("Running test for %s", params.Name)
			testFunc(t, params)
		})
	}
}

// NewTestParams returns a copy of base that tests may modify freely
func NewTestParams(base *chainconfig.Params) *chainconfig.Params {
	params := *base

	params.TransactionTypeActivationHeights = make(map[externalapi.TransactionType]uint64,
		len(base.TransactionTypeActivationHeights))
	for transactionType, height := range base.TransactionTypeActivationHeights {
		params.TransactionTypeActivationHeights[transactionType] = height
	}
	params.RewardExceptions = copySet(base.RewardExceptions)
	params.InertTransactions = copySet(base.InertTransactions)
	return &params
}

func copySet(set map[string]struct{}) map[string]struct{} {
	setCopy := make(map[string]struct{}, len(set))
	for key := range set {
		setCopy[key] = struct{}{}
	}
	return setCopy
}
