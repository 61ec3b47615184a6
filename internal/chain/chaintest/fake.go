// Package chaintest provides a deterministic in-memory chain.Client for
// tests, so the sampling and aggregation logic can be exercised without a
// live RPC endpoint.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"chainlens/internal/chain"
)

type FakeClient struct {
	mu sync.Mutex

	Height    uint64
	HeightErr error

	Blocks    map[uint64]*chain.Block
	BlockErrs map[uint64]error

	Txs      map[string]*chain.Transaction
	Receipts map[string]*chain.Receipt
	TxErrs   map[string]error

	GasPrice *big.Int
	FeeErr   error

	BlockFetches int
	PairFetches  int
}

func New(height uint64) *FakeClient {
	return &FakeClient{
		Height:    height,
		Blocks:    make(map[uint64]*chain.Block),
		BlockErrs: make(map[uint64]error),
		Txs:       make(map[string]*chain.Transaction),
		Receipts:  make(map[string]*chain.Receipt),
		TxErrs:    make(map[string]error),
		GasPrice:  big.NewInt(20_000_000_000),
	}
}

// AddBlock registers a block at the given height.
func (f *FakeClient) AddBlock(number uint64, at time.Time, hashes ...string) *chain.Block {
	block := &chain.Block{
		Number:   number,
		Time:     at,
		TxHashes: hashes,
		GasUsed:  15_000_000,
		GasLimit: 30_000_000,
	}
	f.Blocks[number] = block
	return block
}

// AddTx registers a transaction/receipt pair.
func (f *FakeClient) AddTx(tx *chain.Transaction, receipt *chain.Receipt) {
	f.Txs[tx.Hash] = tx
	f.Receipts[tx.Hash] = receipt
}

func (f *FakeClient) BlockHeight(ctx context.Context) (uint64, error) {
	if f.HeightErr != nil {
		return 0, f.HeightErr
	}
	return f.Height, nil
}

func (f *FakeClient) BlockByNumber(ctx context.Context, number uint64) (*chain.Block, error) {
	f.mu.Lock()
	f.BlockFetches++
	f.mu.Unlock()

	if err, ok := f.BlockErrs[number]; ok {
		return nil, err
	}
	block, ok := f.Blocks[number]
	if !ok {
		return nil, fmt.Errorf("block %d not found", number)
	}
	return block, nil
}

func (f *FakeClient) TransactionByHash(ctx context.Context, hash string) (*chain.Transaction, error) {
	f.mu.Lock()
	f.PairFetches++
	f.mu.Unlock()

	if err, ok := f.TxErrs[hash]; ok {
		return nil, err
	}
	tx, ok := f.Txs[hash]
	if !ok {
		return nil, fmt.Errorf("transaction %s not found", hash)
	}
	return tx, nil
}

func (f *FakeClient) TransactionReceipt(ctx context.Context, hash string) (*chain.Receipt, error) {
	if err, ok := f.TxErrs[hash]; ok {
		return nil, err
	}
	receipt, ok := f.Receipts[hash]
	if !ok {
		return nil, fmt.Errorf("receipt %s not found", hash)
	}
	return receipt, nil
}

func (f *FakeClient) FeeData(ctx context.Context) (*chain.FeeData, error) {
	if f.FeeErr != nil {
		return nil, f.FeeErr
	}
	return &chain.FeeData{GasPrice: f.GasPrice}, nil
}
