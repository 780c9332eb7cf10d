package ledgermutator

import (
	"encoding/hex"
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// applyRound credits the generator of block with its reward and records
// the block in its round. The fees of a round are shared between its
// forgers when its last block is applied.
func (lm *ledgerMutator) applyRound(dbTx model.DBTransaction, state model.AccountState,
	block *externalapi.Block, transactions []*externalapi.Transaction) error {

	if block.IsGenesis() {
		return nil
	}

	round := lm.slots.RoundNumber(block.Height)
	record, err := lm.roundStore.Round(dbTx, round)
	if database.IsNotFoundError(err) {
		record = model.NewRoundRecord(round)
	} else if err != nil {
		return err
	}

	generator, _, err := state.Account(consensushashing.AddressFromPublicKey(block.GeneratorPublicKey))
	if err != nil {
		return err
	}
	reward := blockReward(block)
	generator.ProducedBlocks++
	generator.Balance.Add(generator.Balance, reward)
	generator.Rewards.Add(generator.Rewards, reward)
	state.SetAccount(generator)

	_, fees := consensushashing.TransactionTotals(transactions)
	record.Forgers = append(record.Forgers, hex.EncodeToString(block.GeneratorPublicKey))
	record.Fees.Add(record.Fees, fees)
	record.Rewards.Add(record.Rewards, reward)

	if lm.slots.IsLastBlockOfRound(block.Height) {
		err = distributeFees(state, record, false)
		if err != nil {
			return err
		}
		log.Debugf("Round %d ended at block %s: %s fees shared between %d forgers",
			round, block.ID, record.Fees, len(record.Forgers))
	}
	return lm.roundStore.Save(dbTx, record)
}

// undoRound reverts applyRound for block
func (lm *ledgerMutator) undoRound(dbTx model.DBTransaction, state model.AccountState,
	block *externalapi.Block, transactions []*externalapi.Transaction) error {

	round := lm.slots.RoundNumber(block.Height)
	record, err := lm.roundStore.Round(dbTx, round)
	if err != nil {
		return errors.Wrapf(err, "failed loading round %d of block %s", round, block.ID)
	}

	generatorHex := hex.EncodeToString(block.GeneratorPublicKey)
	lastForger := len(record.Forgers) - 1
	if lastForger < 0 || record.Forgers[lastForger] != generatorHex {
		return errors.Errorf("block %s is not the last block recorded in round %d", block.ID, round)
	}

	if lm.slots.IsLastBlockOfRound(block.Height) {
		err = distributeFees(state, record, true)
		if err != nil {
			return err
		}
	}

	generator, _, err := state.Account(consensushashing.AddressFromPublicKey(block.GeneratorPublicKey))
	if err != nil {
		return err
	}
	reward := blockReward(block)
	generator.ProducedBlocks--
	generator.Balance.Sub(generator.Balance, reward)
	generator.Rewards.Sub(generator.Rewards, reward)
	state.SetAccount(generator)

	_, fees := consensushashing.TransactionTotals(transactions)
	record.Forgers = record.Forgers[:lastForger]
	record.Fees.Sub(record.Fees, fees)
	record.Rewards.Sub(record.Rewards, reward)

	if len(record.Forgers) == 0 {
		return lm.roundStore.Delete(dbTx, round)
	}
	return lm.roundStore.Save(dbTx, record)
}

// distributeFees shares the fees of record evenly between its forgers. The
// remainder goes to the last forger. With isUndo set, the shares are taken
// back instead.
func distributeFees(state model.AccountState, record *model.RoundRecord, isUndo bool) error {
	if len(record.Forgers) == 0 || record.Fees.Sign() == 0 {
		return nil
	}

	forgerCount := big.NewInt(int64(len(record.Forgers)))
	share, remainder := new(big.Int).QuoRem(record.Fees, forgerCount, new(big.Int))
	for i, forgerHex := range record.Forgers {
		publicKey, err := hex.DecodeString(forgerHex)
		if err != nil {
			return errors.Wrapf(err, "malformed forger %s in round %d", forgerHex, record.Round)
		}
		forger, _, err := state.Account(consensushashing.AddressFromPublicKey(publicKey))
		if err != nil {
			return err
		}

		amount := new(big.Int).Set(share)
		if i == len(record.Forgers)-1 {
			amount.Add(amount, remainder)
		}
		if isUndo {
			amount.Neg(amount)
		}
		forger.Balance.Add(forger.Balance, amount)
		forger.Fees.Add(forger.Fees, amount)
		state.SetAccount(forger)
	}
	return nil
}

func blockReward(block *externalapi.Block) *big.Int {
	if block.Reward == nil {
		return big.NewInt(0)
	}
	return block.Reward
}
