package scanner

import (
	"time"

	"chainlens/internal/chain"
)

// Sentinel values for ContractRecord fields that were never observed.
const (
	UnknownCreator = "unknown"
)

// ContractRecord accumulates everything observed about one contract
// address during a single scan window. Records live only for the duration
// of the scan that built them; callers may serialize or cache the returned
// copies but must not mutate records owned by an in-flight scan.
type ContractRecord struct {
	Address            string            `json:"address"`
	Creator            string            `json:"creator"`
	CreationHash       string            `json:"creationHash,omitempty"`
	CreationBlock      uint64            `json:"creationBlock,omitempty"`
	ContractType       string            `json:"contractType"`
	FirstSeen          time.Time         `json:"firstSeen"`
	LastActivity       time.Time         `json:"lastActivity"`
	TotalInteractions  int               `json:"totalInteractions"`
	UniqueCallers      map[string]bool   `json:"-"`
	UniqueCallerCount  int               `json:"uniqueCallers"`
	FunctionSignatures map[string]int    `json:"functionSignatures"`
	GasUsed            uint64            `json:"gasUsed"`
}

// DeploymentObserved reports whether a creation transaction for this
// contract was seen inside the scan window.
func (c *ContractRecord) DeploymentObserved() bool {
	return c.CreationHash != ""
}

// FunctionStat aggregates one 4-byte selector across the whole sampled set.
type FunctionStat struct {
	Signature string `json:"signature"`
	Name      string `json:"name"`
	CallCount int    `json:"callCount"`
	GasUsage  uint64 `json:"gasUsage"`
}

// AvgGasPerCall guards the zero-call case.
func (f *FunctionStat) AvgGasPerCall() uint64 {
	if f.CallCount == 0 {
		return 0
	}
	return f.GasUsage / uint64(f.CallCount)
}

// TypeCount is one bucket of the contract-type distribution.
type TypeCount struct {
	Type       string `json:"type"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// SampledTransaction is the transient (transaction, receipt, block time)
// triple produced by the sampler. It is consumed by the classifier and
// aggregator and never retained afterwards.
type SampledTransaction struct {
	Tx          *chain.Transaction
	Receipt     *chain.Receipt
	BlockNumber uint64
	BlockTime   time.Time
}
