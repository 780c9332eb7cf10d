package blocklogger

import (
	"sync"
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

const logInterval = 10 * time.Second

var (
	mtx               sync.Mutex
	receivedLogBlocks int64
	receivedLogTx     int64
	lastBlockLogTime  = time.Now()
)

// LogBlock logs the height of the latest processed block as an information
// message to show progress to the user. In order to prevent spam, it limits
// logging to one message every 10 seconds with duration and totals
// included.
func LogBlock(block *externalapi.Block) {
	mtx.Lock()
	defer mtx.Unlock()

	receivedLogBlocks++
	receivedLogTx += int64(len(block.Transactions))

	now := time.Now()
	duration := now.Sub(lastBlockLogTime)
	if duration < logInterval {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	tDuration := duration.Round(10 * time.Millisecond)

	blockStr := "blocks"
	if receivedLogBlocks == 1 {
		blockStr = "block"
	}
	txStr := "transactions"
	if receivedLogTx == 1 {
		txStr = "transaction"
	}

	log.Infof("Processed %d %s in the last %s (%d %s, height %d)",
		receivedLogBlocks, blockStr, tDuration, receivedLogTx, txStr, block.Height)

	receivedLogBlocks = 0
	receivedLogTx = 0
	lastBlockLogTime = now
}
