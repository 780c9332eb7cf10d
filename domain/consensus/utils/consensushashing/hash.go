package consensushashing

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
)

const addressSuffix = "L"

// HashBytes returns the sha256 digest of data
func HashBytes(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// numericIDFromHash derives a numeric id from the first 8 bytes of a
// digest, read in reverse order.
func numericIDFromHash(hash []byte) uint64 {
	var reversed [8]byte
	for i := 0; i < 8; i++ {
		reversed[i] = hash[7-i]
	}
	return binary.BigEndian.Uint64(reversed[:])
}

func numericIDString(hash []byte) string {
	return strconv.FormatUint(numericIDFromHash(hash), 10)
}

// AddressFromPublicKey returns the address owned by the given public key
func AddressFromPublicKey(publicKey []byte) string {
	return numericIDString(HashBytes(publicKey)) + addressSuffix
}
