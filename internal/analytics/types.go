package analytics

import (
	"math/big"
	"time"

	"chainlens/internal/scanner"
)

// Status values carried on every façade response.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Meta tells the consumer whether the numbers are live, and when they were
// captured. A degraded response is either a last-known-good payload (older
// CapturedAt) or zero values; fabricated numbers are never substituted.
type Meta struct {
	Status     string    `json:"status"`
	Partial    bool      `json:"partial,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
}

type NetworkStats struct {
	Meta              Meta    `json:"meta"`
	Chain             string  `json:"chain"`
	BlockHeight       uint64  `json:"blockHeight"`
	GasPriceWei       string  `json:"gasPriceWei"`
	GasPriceGwei      float64 `json:"gasPriceGwei"`
	AvgTxPerBlock     float64 `json:"avgTxPerBlock"`
	AvgBlockSeconds   float64 `json:"avgBlockSeconds"`
	AvgGasUtilization float64 `json:"avgGasUtilization"` // percent of gas limit
	BlocksSampled     int     `json:"blocksSampled"`
}

type TransactionAnalysis struct {
	Meta                Meta           `json:"meta"`
	BlocksAnalyzed      int            `json:"blocksAnalyzed"`
	SampledTransactions int            `json:"sampledTransactions"`
	Categories          map[string]int `json:"categories"`
	TotalGasUsed        uint64         `json:"totalGasUsed"`
	AvgGasPerTx         uint64         `json:"avgGasPerTx"`
	TotalValueWei       string         `json:"totalValueWei"`
	TotalValueETH       float64        `json:"totalValueEth"`
}

type WhaleTransfer struct {
	Hash     string    `json:"hash"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	ValueWei string    `json:"valueWei"`
	ValueETH float64   `json:"valueEth"`
	Block    uint64    `json:"block"`
	Time     time.Time `json:"time"`
}

type WhaleReport struct {
	Meta                Meta            `json:"meta"`
	ThresholdETH        float64         `json:"thresholdEth"`
	BlocksAnalyzed      int             `json:"blocksAnalyzed"`
	SampledTransactions int             `json:"sampledTransactions"`
	Transfers           []WhaleTransfer `json:"transfers"`
}

type DeFiVolume struct {
	Meta           Meta    `json:"meta"`
	BlocksAnalyzed int     `json:"blocksAnalyzed"`
	SwapCalls      int     `json:"swapCalls"`
	VolumeWei      string  `json:"volumeWei"`
	VolumeETH      float64 `json:"volumeEth"`
}

type GasSnapshot struct {
	Meta         Meta    `json:"meta"`
	GasPriceWei  string  `json:"gasPriceWei"`
	GasPriceGwei float64 `json:"gasPriceGwei"`
	LatestBlock  uint64  `json:"latestBlock"`
	GasUsed      uint64  `json:"gasUsed"`
	GasLimit     uint64  `json:"gasLimit"`
	Utilization  float64 `json:"utilization"` // percent
}

type ContractList struct {
	Meta      Meta                      `json:"meta"`
	Contracts []*scanner.ContractRecord `json:"contracts"`
}

type FunctionList struct {
	Meta      Meta                    `json:"meta"`
	Functions []*scanner.FunctionStat `json:"functions"`
}

type TypeBreakdown struct {
	Meta  Meta           `json:"meta"`
	Types map[string]int `json:"types"`
}

type EcosystemReport struct {
	Meta    Meta                      `json:"meta"`
	Summary *scanner.EcosystemSummary `json:"summary"`
}

func weiToEth(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return eth
}

func weiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return gwei
}

func weiString(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return wei.String()
}

func ethToWei(eth float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18)).Int(nil)
	return wei
}
