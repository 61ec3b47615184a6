package chain

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"
)

// RPCManager multiplexes a set of JSON-RPC endpoints for one chain and
// fails over to the next endpoint when the current one stops answering.
// It implements Client.
type RPCManager struct {
	chainName         string
	chainID           *big.Int
	urls              []string
	clients           []*ethclient.Client
	current           int
	mutex             sync.RWMutex
	timeout           time.Duration
	healthCacheWindow time.Duration
	lastHealthyAt     []time.Time
}

func dialEthClient(rawURL string) (*ethclient.Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty rpc url")
	}
	return ethclient.Dial(rawURL)
}

func NewRPCManager(chainName string, chainID int64, urls []string, timeout time.Duration) (*RPCManager, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one RPC URL is required")
	}

	manager := &RPCManager{
		chainName:         chainName,
		chainID:           big.NewInt(chainID),
		urls:              urls,
		timeout:           timeout,
		clients:           make([]*ethclient.Client, len(urls)),
		healthCacheWindow: 5 * time.Second,
		lastHealthyAt:     make([]time.Time, len(urls)),
	}

	for i, url := range urls {
		client, err := dialEthClient(url)
		if err != nil {
			// Record the failure but keep trying the remaining URLs.
			log.WithFields(log.Fields{"chain": chainName, "url": url}).Warnf("failed to connect to RPC: %v", err)
			continue
		}
		manager.clients[i] = client
	}

	manager.current = rand.Intn(len(manager.clients))

	return manager, nil
}

func (r *RPCManager) getClient(ctx context.Context) (*ethclient.Client, error) {
	r.mutex.RLock()
	current := r.current
	timeout := r.timeout
	cacheWindow := r.healthCacheWindow
	var client *ethclient.Client
	var lastHealthy time.Time
	if current >= 0 && current < len(r.clients) {
		client = r.clients[current]
		lastHealthy = r.lastHealthyAt[current]
	}
	r.mutex.RUnlock()

	if client != nil {
		if !lastHealthy.IsZero() && time.Since(lastHealthy) < cacheWindow {
			return client, nil
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		_, err := client.BlockNumber(pingCtx)
		if err == nil {
			r.mutex.Lock()
			if current >= 0 && current < len(r.lastHealthyAt) {
				r.lastHealthyAt[current] = time.Now()
			}
			r.mutex.Unlock()
			return client, nil
		}
	}

	return r.switchToNextClient(ctx)
}

func (r *RPCManager) switchToNextClient(ctx context.Context) (*ethclient.Client, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := 0; i < len(r.clients); i++ {
		nextIndex := (r.current + 1 + i) % len(r.clients)

		if r.clients[nextIndex] != nil {
			pingCtx, cancel := context.WithTimeout(ctx, r.timeout)
			_, err := r.clients[nextIndex].BlockNumber(pingCtx)
			cancel()

			if err == nil {
				r.current = nextIndex
				if nextIndex >= 0 && nextIndex < len(r.lastHealthyAt) {
					r.lastHealthyAt[nextIndex] = time.Now()
				}
				log.WithField("chain", r.chainName).Infof("switched to RPC: %s", r.urls[nextIndex])
				return r.clients[nextIndex], nil
			}
		}
	}

	return nil, fmt.Errorf("all RPC nodes are unavailable")
}

func (r *RPCManager) ChainName() string {
	return r.chainName
}

func (r *RPCManager) CurrentURL() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.current < len(r.urls) {
		return r.urls[r.current]
	}
	return ""
}

func (r *RPCManager) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, client := range r.clients {
		if client != nil {
			client.Close()
		}
	}
}

// BlockHeight implements Client.
func (r *RPCManager) BlockHeight(ctx context.Context) (uint64, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return 0, err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return client.BlockNumber(callCtx)
}

// BlockByNumber implements Client.
func (r *RPCManager) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	block, err := client.BlockByNumber(callCtx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", number, err)
	}

	hashes := make([]string, 0, len(block.Transactions()))
	for _, tx := range block.Transactions() {
		hashes = append(hashes, tx.Hash().Hex())
	}

	return &Block{
		Number:   block.NumberU64(),
		Time:     time.Unix(int64(block.Time()), 0).UTC(),
		TxHashes: hashes,
		GasUsed:  block.GasUsed(),
		GasLimit: block.GasLimit(),
	}, nil
}

// TransactionByHash implements Client.
func (r *RPCManager) TransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, _, err := client.TransactionByHash(callCtx, common.HexToHash(hash))
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", hash, err)
	}

	out := &Transaction{
		Hash:  tx.Hash().Hex(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	if to := tx.To(); to != nil {
		out.To = to.Hex()
	}
	if from, err := types.Sender(types.LatestSignerForChainID(r.chainID), tx); err == nil {
		out.From = from.Hex()
	}

	return out, nil
}

// TransactionReceipt implements Client.
func (r *RPCManager) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	receipt, err := client.TransactionReceipt(callCtx, common.HexToHash(hash))
	if err != nil {
		return nil, fmt.Errorf("receipt %s: %w", hash, err)
	}

	out := &Receipt{
		Status:  receipt.Status,
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.ContractAddress != (common.Address{}) {
		out.ContractAddress = receipt.ContractAddress.Hex()
	}

	return out, nil
}

// FeeData implements Client.
func (r *RPCManager) FeeData(ctx context.Context) (*FeeData, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	gasPrice, err := client.SuggestGasPrice(callCtx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	return &FeeData{GasPrice: gasPrice}, nil
}
