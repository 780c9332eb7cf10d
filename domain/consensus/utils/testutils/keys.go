package testutils

import (
	"bytes"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/pkg/errors"
)

// DelegateKeyPair returns the key pair of the genesis delegate with the
// given public key
func DelegateKeyPair(params *chainconfig.Params, publicKey []byte) (*signing.KeyPair, error) {
	for _, secret := range params.GenesisDelegateSecrets {
		keyPair := signing.KeyPairFromSecret(secret)
		if bytes.Equal(keyPair.PublicKey, publicKey) {
			return keyPair, nil
		}
	}
	return nil, errors.Errorf("%x is not a known genesis delegate of %s", publicKey, params.Name)
}

// HolderKeyPair returns the key pair of the account holding the genesis
// supply
func HolderKeyPair(params *chainconfig.Params) *signing.KeyPair {
	return signing.KeyPairFromSecret(chainconfig.GenesisHolderSecret(params.Name))
}
