package consensus

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// Config is a descriptor for a consensus instance
type Config struct {
	chainconfig.Params

	// Clock supplies the current time. The system clock is used when it
	// is nil.
	Clock model.Clock

	// Broadcast is called with every block that passed verification,
	// before it is persisted
	Broadcast func(block *externalapi.Block)

	// Delegates are the public keys of the delegates allowed to forge.
	// The genesis delegates are used when it is empty.
	Delegates [][]byte
}
