package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainlens/internal/chain"
	"chainlens/internal/chain/chaintest"
)

func newTestSampler(client chain.Client, ceiling int) *Sampler {
	return NewSampler(client, ceiling, time.Millisecond)
}

// fills a block at the given height with n plain transfers and returns the
// hashes.
func fillBlock(fake *chaintest.FakeClient, number uint64, n int) []string {
	hashes := make([]string, n)
	for i := 0; i < n; i++ {
		hash := fmt.Sprintf("0xtx_%d_%d", number, i)
		hashes[i] = hash
		fake.AddTx(
			&chain.Transaction{Hash: hash, From: "0xfrom", To: "0xto", Value: big.NewInt(1)},
			&chain.Receipt{Status: 1, GasUsed: 21_000, BlockNumber: number},
		)
	}
	fake.AddBlock(number, time.Now().UTC(), hashes...)
	return hashes
}

func TestScanStrideSampling(t *testing.T) {
	fake := chaintest.New(1000)
	fillBlock(fake, 1000, 500)

	sampler := newTestSampler(fake, 50)

	var emitted []SampledTransaction
	err := sampler.Scan(context.Background(), 1, func(s SampledTransaction) {
		emitted = append(emitted, s)
	})
	require.NoError(t, err)

	// 500 hashes at a ceiling of 50 means stride 10: indexes 0, 10, ... 490.
	require.Len(t, emitted, 50)
	assert.Equal(t, "0xtx_1000_0", emitted[0].Tx.Hash)
	assert.Equal(t, "0xtx_1000_10", emitted[1].Tx.Hash)
	assert.Equal(t, "0xtx_1000_490", emitted[49].Tx.Hash)
	assert.Equal(t, uint64(1000), emitted[0].BlockNumber)
}

func TestScanSmallBlockTakesAll(t *testing.T) {
	fake := chaintest.New(10)
	fillBlock(fake, 10, 3)

	sampler := newTestSampler(fake, 50)

	count := 0
	require.NoError(t, sampler.Scan(context.Background(), 1, func(SampledTransaction) { count++ }))
	assert.Equal(t, 3, count)
}

func TestScanHeightFailureIsFatal(t *testing.T) {
	fake := chaintest.New(0)
	fake.HeightErr = errors.New("all endpoints down")

	sampler := newTestSampler(fake, 50)

	err := sampler.Scan(context.Background(), 5, func(SampledTransaction) {
		t.Fatal("nothing should be emitted")
	})
	assert.Error(t, err)
}

func TestScanSkipsFailedBlocks(t *testing.T) {
	fake := chaintest.New(100)
	fillBlock(fake, 100, 2)
	fake.BlockErrs[99] = errors.New("rpc timeout")
	fillBlock(fake, 98, 1)

	sampler := newTestSampler(fake, 50)

	count := 0
	require.NoError(t, sampler.Scan(context.Background(), 3, func(SampledTransaction) { count++ }))

	// Block 99 is skipped, the other two still contribute.
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, fake.BlockFetches)
}

func TestScanSkipsFailedTransactions(t *testing.T) {
	fake := chaintest.New(50)
	hashes := fillBlock(fake, 50, 4)
	fake.TxErrs[hashes[1]] = errors.New("tx not found")

	sampler := newTestSampler(fake, 50)

	var got []string
	require.NoError(t, sampler.Scan(context.Background(), 1, func(s SampledTransaction) {
		got = append(got, s.Tx.Hash)
	}))
	assert.Equal(t, []string{hashes[0], hashes[2], hashes[3]}, got)
}

func TestScanSkipsEmptyBlocks(t *testing.T) {
	fake := chaintest.New(20)
	fake.AddBlock(20, time.Now().UTC()) // no transactions
	fillBlock(fake, 19, 2)

	sampler := newTestSampler(fake, 50)

	count := 0
	require.NoError(t, sampler.Scan(context.Background(), 2, func(SampledTransaction) { count++ }))
	assert.Equal(t, 2, count)
}

func TestScanCancelKeepsPartialResults(t *testing.T) {
	fake := chaintest.New(100)
	fillBlock(fake, 100, 2)
	fillBlock(fake, 99, 2)

	ctx, cancel := context.WithCancel(context.Background())

	sampler := newTestSampler(fake, 50)

	count := 0
	err := sampler.Scan(ctx, 2, func(SampledTransaction) {
		count++
		cancel() // cancel mid-scan, after the first emit
	})

	// Cancellation is not an error; what was emitted stays emitted.
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
	assert.Less(t, count, 4)
}

func TestScanStopsAtGenesis(t *testing.T) {
	fake := chaintest.New(1)
	fillBlock(fake, 1, 1)
	fillBlock(fake, 0, 1)

	sampler := newTestSampler(fake, 50)

	// Asking for more blocks than exist walks down to zero and stops.
	count := 0
	require.NoError(t, sampler.Scan(context.Background(), 10, func(SampledTransaction) { count++ }))
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, fake.BlockFetches)
}
