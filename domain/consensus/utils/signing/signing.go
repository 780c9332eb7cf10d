package signing

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"golang.org/x/crypto/ed25519"
)

// SignBlock sets block's generator public key and signature. The payload
// fields must be final since they are covered by the signature.
func SignBlock(block *externalapi.Block, keyPair *KeyPair) error {
	block.GeneratorPublicKey = append([]byte(nil), keyPair.PublicKey...)
	hash, err := consensushashing.BlockSigningHash(block)
	if err != nil {
		return err
	}
	block.BlockSignature = ed25519.Sign(keyPair.PrivateKey, hash)
	return nil
}

// VerifyBlockSignature returns whether the block signature verifies
// against its generator public key
func VerifyBlockSignature(block *externalapi.Block) (bool, error) {
	if len(block.GeneratorPublicKey) != ed25519.PublicKeySize {
		return false, nil
	}
	hash, err := consensushashing.BlockSigningHash(block)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(block.GeneratorPublicKey, hash, block.BlockSignature), nil
}

// SignTransaction sets tx's sender, signature and id
func SignTransaction(tx *externalapi.Transaction, keyPair *KeyPair) error {
	tx.SenderPublicKey = append([]byte(nil), keyPair.PublicKey...)
	tx.SenderID = consensushashing.AddressFromPublicKey(keyPair.PublicKey)
	hash, err := consensushashing.TransactionSigningHash(tx)
	if err != nil {
		return err
	}
	tx.Signature = ed25519.Sign(keyPair.PrivateKey, hash)
	tx.ID, err = consensushashing.TransactionID(tx)
	return err
}

// MultisignTransaction returns keyPair's co-signature over tx
func MultisignTransaction(tx *externalapi.Transaction, keyPair *KeyPair) ([]byte, error) {
	hash, err := consensushashing.TransactionSigningHash(tx)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(keyPair.PrivateKey, hash), nil
}

// VerifyTransactionSignature returns whether signature verifies against
// publicKey over tx's signing hash
func VerifyTransactionSignature(tx *externalapi.Transaction, publicKey []byte, signature []byte) (bool, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return false, nil
	}
	hash, err := consensushashing.TransactionSigningHash(tx)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(publicKey, hash, signature), nil
}
