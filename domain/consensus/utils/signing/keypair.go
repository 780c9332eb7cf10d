package signing

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ed25519"
)

// KeyPair is an ed25519 key pair owned by an account or a delegate
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// KeyPairFromSecret deterministically derives a key pair from a secret
// passphrase
func KeyPairFromSecret(secret string) *KeyPair {
	seed := sha256.Sum256([]byte(secret))
	privateKey := ed25519.NewKeyFromSeed(seed[:])
	return &KeyPair{
		PublicKey:  privateKey.Public().(ed25519.PublicKey),
		PrivateKey: privateKey,
	}
}

// PublicKeyHex returns the hex encoding of the key pair's public key
func (kp *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(kp.PublicKey)
}
