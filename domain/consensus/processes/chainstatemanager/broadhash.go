package chainstatemanager

import (
	"encoding/hex"
	"strings"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
)

// broadhash hashes the given block ids, highest block first. A chain with
// at most one block is identified by the network hash instead.
func broadhash(params *chainconfig.Params, lastBlockIDs []string) string {
	if len(lastBlockIDs) <= 1 {
		return params.Nethash()
	}
	return hex.EncodeToString(consensushashing.HashBytes([]byte(strings.Join(lastBlockIDs, ""))))
}
