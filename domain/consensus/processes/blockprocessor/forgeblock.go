package blockprocessor

import (
	"github.com/dposnet/dposd/domain/consensus/datastructures/accountstore"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
)

// ForgeBlock builds and signs a block extending lastBlock. transactions
// are expected to have gone through FilterTransactions.
func (bp *blockProcessor) ForgeBlock(lastBlock *externalapi.Block, keyPair *signing.KeyPair, timestamp uint32,
	transactions []*externalapi.Transaction) (*externalapi.Block, error) {

	height := lastBlock.Height + 1
	reward, err := bp.rewardCurve.Reward(height)
	if err != nil {
		return nil, err
	}

	payloadHash, payloadLength, err := consensushashing.PayloadHash(transactions)
	if err != nil {
		return nil, err
	}
	totalAmount, totalFee := consensushashing.TransactionTotals(transactions)

	block := &externalapi.Block{
		Version:                     bp.params.BlockVersion,
		Height:                      height,
		PreviousBlockID:             lastBlock.ID,
		Timestamp:                   timestamp,
		PayloadHash:                 payloadHash,
		PayloadLength:               payloadLength,
		NumberOfTransactions:        uint32(len(transactions)),
		TotalAmount:                 totalAmount,
		TotalFee:                    totalFee,
		Reward:                      reward,
		PrevotedConfirmedUptoHeight: lastBlock.PrevotedConfirmedUptoHeight,
		Transactions:                transactions,
	}

	err = signing.SignBlock(block, keyPair)
	if err != nil {
		return nil, err
	}
	block.ID, err = consensushashing.BlockID(block)
	if err != nil {
		return nil, err
	}

	log.Debugf("Forged block %s at height %d with %d transactions", block.ID, block.Height, len(transactions))
	return block, nil
}

// FilterTransactions returns the transactions that can be included in a
// block extending lastBlock, in order, up to the block capacity
func (bp *blockProcessor) FilterTransactions(lastBlock *externalapi.Block,
	transactions []*externalapi.Transaction) []*externalapi.Transaction {

	allowed := make([]*externalapi.Transaction, 0, len(transactions))
	seen := make(map[string]struct{}, len(transactions))
	validationResults := bp.transactionProcessor.ValidateTransactions(transactions)
	results := bp.transactionProcessor.CheckAllowedTransactions(transactions, lastBlock.Height+1)
	for i, result := range results {
		if validationResults[i].Status != model.TransactionStatusOK {
			log.Debugf("Excluding transaction %s: %v", result.TransactionID, validationResults[i].Errors)
			continue
		}
		if result.Status != model.TransactionStatusOK {
			log.Debugf("Excluding transaction %s: %v", result.TransactionID, result.Errors)
			continue
		}
		confirmed, err := bp.blockStore.IsTransactionConfirmed(bp.databaseContext, transactions[i].ID)
		if err != nil {
			log.Warnf("Excluding transaction %s: %s", transactions[i].ID, err)
			continue
		}
		if confirmed {
			log.Debugf("Excluding transaction %s: already confirmed", transactions[i].ID)
			continue
		}
		if _, ok := seen[transactions[i].ID]; ok {
			continue
		}
		seen[transactions[i].ID] = struct{}{}
		allowed = append(allowed, transactions[i])
	}

	state := accountstore.NewStagingState(bp.accountStore, bp.databaseContext)
	results = bp.transactionProcessor.VerifyTransactions(state, allowed)

	filtered := make([]*externalapi.Transaction, 0, len(allowed))
	payloadLength := 0
	for i, result := range results {
		if result.Status != model.TransactionStatusOK {
			log.Debugf("Excluding transaction %s with status %s: %v",
				result.TransactionID, result.Status, result.Errors)
			continue
		}
		if len(filtered) == bp.params.MaxTransactionsPerBlock {
			break
		}
		txBytes, err := consensushashing.TransactionBytes(allowed[i], false, false)
		if err != nil {
			log.Warnf("Excluding transaction %s: %s", allowed[i].ID, err)
			continue
		}
		if uint32(payloadLength+len(txBytes)) > bp.params.MaxPayloadLength {
			break
		}
		payloadLength += len(txBytes)
		filtered = append(filtered, allowed[i])
	}
	return filtered
}
