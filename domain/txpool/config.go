package txpool

import (
	"time"
)

const (
	defaultMaxQueueSize            = 1000
	defaultFillInterval            = 2 * time.Second
	defaultReceivedBatchSize       = 25
	defaultVerifiedBatchSize       = 25
	defaultMaxTransactionsPerQuery = 1000
	defaultMaxTransactionsToRelay  = 25
)

// Config holds the limits of the pool
type Config struct {
	// MaxQueueSize is the capacity of each queue
	MaxQueueSize int

	// FillInterval is the period of the fill cycle
	FillInterval time.Duration

	// ReceivedBatchSize and VerifiedBatchSize bound how many transactions
	// a single fill cycle promotes out of RECEIVED and VERIFIED
	ReceivedBatchSize int
	VerifiedBatchSize int

	// MaxTransactionsPerQuery caps GetMergedTransactionList
	MaxTransactionsPerQuery int

	// MaxTransactionsToRelay caps a single TransactionsToRelay call
	MaxTransactionsToRelay int
}

// DefaultConfig returns the default pool limits
func DefaultConfig() *Config {
	return &Config{
		MaxQueueSize:            defaultMaxQueueSize,
		FillInterval:            defaultFillInterval,
		ReceivedBatchSize:       defaultReceivedBatchSize,
		VerifiedBatchSize:       defaultVerifiedBatchSize,
		MaxTransactionsPerQuery: defaultMaxTransactionsPerQuery,
		MaxTransactionsToRelay:  defaultMaxTransactionsToRelay,
	}
}
