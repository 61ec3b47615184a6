package chain

import (
	"context"
	"math/big"
	"time"
)

// Block is the subset of a chain block the analytics engine consumes.
type Block struct {
	Number   uint64
	Time     time.Time
	TxHashes []string
	GasUsed  uint64
	GasLimit uint64
}

// Transaction mirrors the fields available without tracing. An empty To
// means the transaction creates a contract.
type Transaction struct {
	Hash  string
	From  string
	To    string
	Value *big.Int
	Data  []byte
}

// Receipt carries the execution outcome of a transaction.
type Receipt struct {
	Status          uint64
	GasUsed         uint64
	ContractAddress string // non-empty only for contract creations
	BlockNumber     uint64
}

// FeeData holds current fee information. GasPrice may be nil when the
// node does not report one.
type FeeData struct {
	GasPrice *big.Int
}

// Client is the capability the sampler and façade depend on. A single
// instance is injected everywhere so tests can substitute a deterministic
// fake without touching classification or aggregation.
type Client interface {
	BlockHeight(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (*Block, error)
	TransactionByHash(ctx context.Context, hash string) (*Transaction, error)
	TransactionReceipt(ctx context.Context, hash string) (*Receipt, error)
	FeeData(ctx context.Context) (*FeeData, error)
}
