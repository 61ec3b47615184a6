package scanner

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainlens/internal/chain"
)

func sampledCall(to, from string, data []byte, gas uint64, at time.Time) SampledTransaction {
	return SampledTransaction{
		Tx:        &chain.Transaction{Hash: "0xh_" + to + from, From: from, To: to, Value: big.NewInt(0), Data: data},
		Receipt:   &chain.Receipt{Status: 1, GasUsed: gas, BlockNumber: 100},
		BlockTime: at,
	}
}

func TestFoldDeployment(t *testing.T) {
	agg := NewAggregator()
	deployed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	agg.Fold(SampledTransaction{
		Tx: &chain.Transaction{
			Hash:  "0xdeploytx",
			From:  "0xCrEaToR",
			To:    "",
			Value: big.NewInt(0),
			Data:  calldata("0xa9059cbb", 64),
		},
		Receipt: &chain.Receipt{
			Status:          1,
			GasUsed:         900_000,
			ContractAddress: "0xDEADbeefDEADbeefDEADbeefDEADbeefDEADbeef",
			BlockNumber:     123,
		},
		BlockNumber: 123,
		BlockTime:   deployed,
	})

	record, ok := agg.Lookup("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	require.True(t, ok)
	assert.True(t, record.DeploymentObserved())
	assert.Equal(t, uint64(123), record.CreationBlock)
	assert.Equal(t, "0xdeploytx", record.CreationHash)
	assert.Equal(t, "0xcreator", record.Creator)
	// Type comes from the deployment calldata, not the Unknown default.
	assert.Equal(t, TypeERC20, record.ContractType)
	assert.Equal(t, deployed, record.FirstSeen)
	assert.Equal(t, 1, record.TotalInteractions)
	assert.Equal(t, 1, record.UniqueCallerCount)
}

func TestFoldInteractionInvariants(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	// Same caller twice, a second caller once, plus a plain transfer with
	// no calldata.
	agg.Fold(sampledCall("0xContractA", "0xAlice", calldata("0xa9059cbb", 64), 50_000, now))
	agg.Fold(sampledCall("0xContractA", "0xAlice", calldata("0xa9059cbb", 64), 50_000, now))
	agg.Fold(sampledCall("0xContractA", "0xBob", calldata("0x12345678", 0), 30_000, now))
	agg.Fold(sampledCall("0xContractA", "0xCarol", nil, 21_000, now))

	record, ok := agg.Lookup("0xcontracta")
	require.True(t, ok)

	assert.Equal(t, 4, record.TotalInteractions)
	assert.Equal(t, 3, record.UniqueCallerCount)
	assert.LessOrEqual(t, record.UniqueCallerCount, record.TotalInteractions)

	// The no-calldata transfer counts toward interactions but not toward
	// any signature bucket.
	sigSum := 0
	for _, n := range record.FunctionSignatures {
		sigSum += n
	}
	assert.Equal(t, 3, sigSum)
	assert.LessOrEqual(t, sigSum, record.TotalInteractions)

	assert.Equal(t, uint64(50_000+50_000+30_000+21_000), record.GasUsed)
}

func TestFoldDiscardsDegenerate(t *testing.T) {
	agg := NewAggregator()
	agg.Fold(SampledTransaction{
		Tx:      &chain.Transaction{Hash: "0x1", From: "0xa", To: ""},
		Receipt: &chain.Receipt{Status: 1}, // no contract address either
	})

	assert.Equal(t, 1, agg.SampledCount())
	assert.Empty(t, agg.MostActive())
}

func TestMostActiveStableTies(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	// A and B tie; C leads. Discovery order is A, B, C.
	agg.Fold(sampledCall("0xAAA", "0x1", nil, 21_000, now))
	agg.Fold(sampledCall("0xBBB", "0x2", nil, 21_000, now))
	agg.Fold(sampledCall("0xCCC", "0x3", nil, 21_000, now))
	agg.Fold(sampledCall("0xCCC", "0x4", nil, 21_000, now))

	ranked := agg.MostActive()
	require.Len(t, ranked, 3)
	assert.Equal(t, "0xccc", ranked[0].Address)
	assert.Equal(t, "0xaaa", ranked[1].Address)
	assert.Equal(t, "0xbbb", ranked[2].Address)
}

func TestPopularFunctions(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	agg.Fold(sampledCall("0xA", "0x1", calldata("0xa9059cbb", 64), 40_000, now))
	agg.Fold(sampledCall("0xB", "0x2", calldata("0xa9059cbb", 64), 60_000, now))
	agg.Fold(sampledCall("0xC", "0x3", calldata("0x12345678", 0), 10_000, now))

	stats := agg.PopularFunctions(10)
	require.Len(t, stats, 2)
	assert.Equal(t, "0xa9059cbb", stats[0].Signature)
	assert.Equal(t, "transfer(address,uint256)", stats[0].Name)
	assert.Equal(t, 2, stats[0].CallCount)
	assert.Equal(t, uint64(50_000), stats[0].AvgGasPerCall())

	// Truncation.
	assert.Len(t, agg.PopularFunctions(1), 1)
}

func TestAvgGasPerCallZeroGuard(t *testing.T) {
	stat := &FunctionStat{Signature: "0x0", GasUsage: 100}
	assert.Equal(t, uint64(0), stat.AvgGasPerCall())
}

func TestTypeDistribution(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	agg.Fold(sampledCall("0xA", "0x1", calldata("0xa9059cbb", 64), 40_000, now))
	agg.Fold(sampledCall("0xB", "0x2", calldata("0xa9059cbb", 64), 40_000, now))
	agg.Fold(sampledCall("0xC", "0x3", calldata("0x38ed1739", 128), 200_000, now))

	dist := agg.TypeDistribution()
	require.Len(t, dist, 2)

	total := 0
	for _, tc := range dist {
		total += tc.Percentage
	}
	// Rounding error is bounded by the number of distinct types.
	assert.InDelta(t, 100, total, float64(len(dist)))

	assert.Equal(t, TypeERC20, dist[0].Type)
	assert.Equal(t, 2, dist[0].Count)
	assert.Equal(t, 67, dist[0].Percentage)
}

func TestTypeDistributionEmpty(t *testing.T) {
	assert.Empty(t, NewAggregator().TypeDistribution())
}

func TestRecentDeploymentsOrdering(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	deploy := func(hash, addr string, block uint64) {
		agg.Fold(SampledTransaction{
			Tx:        &chain.Transaction{Hash: hash, From: "0xdev", To: "", Value: big.NewInt(0)},
			Receipt:   &chain.Receipt{Status: 1, GasUsed: 1, ContractAddress: addr, BlockNumber: block},
			BlockTime: now,
		})
	}
	deploy("0xt1", "0xold", 100)
	deploy("0xt2", "0xnew", 200)
	agg.Fold(sampledCall("0xE", "0x1", nil, 21_000, now)) // interaction only, excluded

	deployments := agg.RecentDeployments()
	require.Len(t, deployments, 2)
	assert.Equal(t, "0xnew", deployments[0].Address)
	assert.Equal(t, "0xold", deployments[1].Address)
}

func TestCaseInsensitiveLookup(t *testing.T) {
	agg := NewAggregator()
	agg.Fold(sampledCall("0xAbCdEf", "0xCaller", nil, 21_000, time.Now().UTC()))

	_, ok := agg.Lookup("0xABCDEF")
	assert.True(t, ok)
	_, ok = agg.Lookup("0xabcdef")
	assert.True(t, ok)
}

func TestValueAndDEXVolume(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	swap := sampledCall("0xRouter", "0x1", calldata("0x38ed1739", 128), 150_000, now)
	swap.Tx.Value = big.NewInt(5)
	agg.Fold(swap)

	plain := sampledCall("0xSomeone", "0x2", nil, 21_000, now)
	plain.Tx.Value = big.NewInt(7)
	agg.Fold(plain)

	assert.Equal(t, big.NewInt(12), agg.TotalValue())
	volume, calls := agg.DEXVolume()
	assert.Equal(t, big.NewInt(5), volume)
	assert.Equal(t, 1, calls)
}
