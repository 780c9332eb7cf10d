package serialization

import (
	"math/big"

	"github.com/pkg/errors"
)

func bigIntToDecimalString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

func decimalStringToBigInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("malformed decimal amount %q", s)
	}
	return n, nil
}
