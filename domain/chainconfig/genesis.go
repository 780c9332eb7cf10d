package chainconfig

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
)

const devnetActiveDelegates = 11

type genesis struct {
	block           *externalapi.Block
	delegateSecrets []string
}

var (
	mainnetGenesis = mustBuildGenesis("mainnet", 101, genesisSupply())
	testnetGenesis = mustBuildGenesis("testnet", 101, genesisSupply())
	devnetGenesis  = mustBuildGenesis("devnet", devnetActiveDelegates, genesisSupply())
)

// genesisSupply returns the supply created by a genesis block
func genesisSupply() *big.Int {
	return big.NewInt(100000000 * fixedPointOne)
}

// GenesisAccountSecret returns the secret of the account that issues the
// genesis supply of the given network
func GenesisAccountSecret(networkName string) string {
	return fmt.Sprintf("%s genesis account", networkName)
}

// GenesisHolderSecret returns the secret of the account that receives the
// genesis supply of the given network
func GenesisHolderSecret(networkName string) string {
	return fmt.Sprintf("%s genesis holder", networkName)
}

func genesisDelegateSecret(networkName string, index int) string {
	return fmt.Sprintf("%s genesis delegate %d", networkName, index+1)
}

// mustBuildGenesis builds a genesis block from deterministic seeds: the
// whole supply moves from the genesis account to the holder, every
// delegate registers, and the holder votes for all of them. It panics on
// error since its input is hard-coded.
func mustBuildGenesis(networkName string, delegates int, totalAmount *big.Int) *genesis {
	genesisAccount := signing.KeyPairFromSecret(GenesisAccountSecret(networkName))
	holder := signing.KeyPairFromSecret(GenesisHolderSecret(networkName))

	transfer := &externalapi.Transaction{
		Type:        externalapi.TransactionTypeTransfer,
		RecipientID: consensushashing.AddressFromPublicKey(holder.PublicKey),
		Amount:      new(big.Int).Set(totalAmount),
		Fee:         big.NewInt(0),
	}
	mustSignTransaction(transfer, genesisAccount)
	transactions := []*externalapi.Transaction{transfer}

	secrets := make([]string, delegates)
	votes := make([]string, delegates)
	for i := 0; i < delegates; i++ {
		secrets[i] = genesisDelegateSecret(networkName, i)
		delegate := signing.KeyPairFromSecret(secrets[i])
		registration := &externalapi.Transaction{
			Type:   externalapi.TransactionTypeDelegate,
			Amount: big.NewInt(0),
			Fee:    big.NewInt(0),
			Asset: externalapi.TransactionAsset{
				Delegate: &externalapi.DelegateAsset{Username: fmt.Sprintf("genesis_%d", i+1)},
			},
		}
		mustSignTransaction(registration, delegate)
		transactions = append(transactions, registration)
		votes[i] = "+" + delegate.PublicKeyHex()
	}

	for start := 0; start < len(votes); start += defaultMaxVotesPerTransaction {
		end := start + defaultMaxVotesPerTransaction
		if end > len(votes) {
			end = len(votes)
		}
		vote := &externalapi.Transaction{
			Type:        externalapi.TransactionTypeVote,
			RecipientID: consensushashing.AddressFromPublicKey(holder.PublicKey),
			Amount:      big.NewInt(0),
			Fee:         big.NewInt(0),
			Asset:       externalapi.TransactionAsset{Votes: append([]string(nil), votes[start:end]...)},
		}
		mustSignTransaction(vote, holder)
		transactions = append(transactions, vote)
	}

	payloadHash, payloadLength, err := consensushashing.PayloadHash(transactions)
	if err != nil {
		panic(err)
	}
	totalTransactionsAmount, totalFee := consensushashing.TransactionTotals(transactions)
	block := &externalapi.Block{
		Version:              blockVersion,
		Height:               1,
		Timestamp:            0,
		PayloadHash:          payloadHash,
		PayloadLength:        payloadLength,
		NumberOfTransactions: uint32(len(transactions)),
		TotalAmount:          totalTransactionsAmount,
		TotalFee:             totalFee,
		Reward:               big.NewInt(0),
		Transactions:         transactions,
	}
	err = signing.SignBlock(block, genesisAccount)
	if err != nil {
		panic(err)
	}
	block.ID, err = consensushashing.BlockID(block)
	if err != nil {
		panic(err)
	}

	return &genesis{block: block, delegateSecrets: secrets}
}

func mustSignTransaction(tx *externalapi.Transaction, keyPair *signing.KeyPair) {
	err := signing.SignTransaction(tx, keyPair)
	if err != nil {
		panic(err)
	}
}

// GenesisDelegatePublicKeys returns the public keys of the delegates
// registered by the genesis block, in registration order
func (p *Params) GenesisDelegatePublicKeys() [][]byte {
	var publicKeys [][]byte
	for _, tx := range p.GenesisBlock.Transactions {
		if tx.Type == externalapi.TransactionTypeDelegate {
			publicKeys = append(publicKeys, tx.SenderPublicKey)
		}
	}
	return publicKeys
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}
