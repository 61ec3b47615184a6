package scanner

import (
	"math"
	"math/big"
	"sort"
	"strings"
)

// Aggregator folds sampled transactions into per-contract and per-function
// tallies and serves ranked read views over them. One aggregator belongs to
// exactly one scan; nothing is shared across concurrent scans, so no
// locking is needed here.
type Aggregator struct {
	contracts     map[string]*ContractRecord
	contractOrder []string // discovery order, the tie-breaker for rankings
	functions     map[string]*FunctionStat
	functionOrder []string
	categories    map[string]int
	sampled       int
	totalGas      uint64
	totalValue    *big.Int
	dexVolume     *big.Int
	dexCalls      int
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		contracts:  make(map[string]*ContractRecord),
		functions:  make(map[string]*FunctionStat),
		categories: make(map[string]int),
		totalValue: new(big.Int),
		dexVolume:  new(big.Int),
	}
}

// Fold consumes one sampled transaction. Deployments create a fresh
// record for the new contract address; interactions accumulate onto the
// recipient's record; a transaction with neither recipient nor created
// contract is discarded.
func (a *Aggregator) Fold(s SampledTransaction) {
	if s.Tx == nil || s.Receipt == nil {
		return
	}

	a.sampled++
	a.categories[Classify(s.Tx)]++
	a.totalGas += s.Receipt.GasUsed
	if s.Tx.Value != nil {
		a.totalValue.Add(a.totalValue, s.Tx.Value)
	}
	if sel := Selector(s.Tx.Data); sel != "" {
		if t, ok := selectorType(sel); ok && t == TypeDEX {
			a.dexCalls++
			if s.Tx.Value != nil {
				a.dexVolume.Add(a.dexVolume, s.Tx.Value)
			}
		}
	}

	sender := strings.ToLower(s.Tx.From)

	switch {
	case s.Receipt.ContractAddress != "":
		addr := strings.ToLower(s.Receipt.ContractAddress)
		record := &ContractRecord{
			Address:            addr,
			Creator:            sender,
			CreationHash:       s.Tx.Hash,
			CreationBlock:      s.Receipt.BlockNumber,
			ContractType:       InferContractType(s.Tx.Data, s.Receipt.GasUsed),
			FirstSeen:          s.BlockTime,
			LastActivity:       s.BlockTime,
			TotalInteractions:  1,
			UniqueCallers:      map[string]bool{sender: true},
			UniqueCallerCount:  1,
			FunctionSignatures: make(map[string]int),
			GasUsed:            s.Receipt.GasUsed,
		}
		if _, seen := a.contracts[addr]; !seen {
			a.contractOrder = append(a.contractOrder, addr)
		}
		a.contracts[addr] = record

	case s.Tx.To != "":
		addr := strings.ToLower(s.Tx.To)
		record, ok := a.contracts[addr]
		if !ok {
			record = &ContractRecord{
				Address:            addr,
				Creator:            UnknownCreator,
				ContractType:       InferContractType(s.Tx.Data, s.Receipt.GasUsed),
				FirstSeen:          s.BlockTime,
				LastActivity:       s.BlockTime,
				UniqueCallers:      make(map[string]bool),
				FunctionSignatures: make(map[string]int),
			}
			a.contracts[addr] = record
			a.contractOrder = append(a.contractOrder, addr)
		}

		record.TotalInteractions++
		if !record.UniqueCallers[sender] {
			record.UniqueCallers[sender] = true
			record.UniqueCallerCount++
		}
		record.GasUsed += s.Receipt.GasUsed
		if s.BlockTime.After(record.LastActivity) {
			record.LastActivity = s.BlockTime
		}
		if s.BlockTime.Before(record.FirstSeen) {
			record.FirstSeen = s.BlockTime
		}

		if sel := Selector(s.Tx.Data); sel != "" {
			record.FunctionSignatures[sel]++
			a.foldFunction(sel, s.Receipt.GasUsed)
		}

	default:
		// No recipient and no created contract: nothing to attribute.
	}
}

func (a *Aggregator) foldFunction(selector string, gasUsed uint64) {
	stat, ok := a.functions[selector]
	if !ok {
		stat = &FunctionStat{
			Signature: selector,
			Name:      FunctionName(selector),
		}
		a.functions[selector] = stat
		a.functionOrder = append(a.functionOrder, selector)
	}
	stat.CallCount++
	stat.GasUsage += gasUsed
}

// SampledCount reports how many transactions were folded.
func (a *Aggregator) SampledCount() int {
	return a.sampled
}

// TotalGas is the gas consumed across all folded transactions.
func (a *Aggregator) TotalGas() uint64 {
	return a.totalGas
}

// TotalValue is the summed wei value across all folded transactions.
func (a *Aggregator) TotalValue() *big.Int {
	return new(big.Int).Set(a.totalValue)
}

// DEXVolume returns the summed wei value and call count of DEX-classified
// calls in the sample.
func (a *Aggregator) DEXVolume() (*big.Int, int) {
	return new(big.Int).Set(a.dexVolume), a.dexCalls
}

// Categories returns the transaction-category tally.
func (a *Aggregator) Categories() map[string]int {
	out := make(map[string]int, len(a.categories))
	for k, v := range a.categories {
		out[k] = v
	}
	return out
}

// MostActive ranks contracts by interaction count, descending. Ties keep
// discovery order; the sort must stay stable.
func (a *Aggregator) MostActive() []*ContractRecord {
	records := a.inOrder()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TotalInteractions > records[j].TotalInteractions
	})
	return records
}

// PopularFunctions ranks selectors by call count, descending, truncated to
// limit (limit <= 0 means all).
func (a *Aggregator) PopularFunctions(limit int) []*FunctionStat {
	stats := make([]*FunctionStat, 0, len(a.functionOrder))
	for _, sel := range a.functionOrder {
		stats = append(stats, a.functions[sel])
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CallCount > stats[j].CallCount
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// TypeDistribution groups contracts by type with rounded percentages.
// Zero contracts yields an empty distribution, never a division.
func (a *Aggregator) TypeDistribution() []TypeCount {
	total := len(a.contracts)
	if total == 0 {
		return []TypeCount{}
	}

	counts := make(map[string]int)
	var order []string
	for _, addr := range a.contractOrder {
		t := a.contracts[addr].ContractType
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}

	dist := make([]TypeCount, 0, len(order))
	for _, t := range order {
		dist = append(dist, TypeCount{
			Type:       t,
			Count:      counts[t],
			Percentage: int(math.Round(100 * float64(counts[t]) / float64(total))),
		})
	}
	sort.SliceStable(dist, func(i, j int) bool {
		return dist[i].Count > dist[j].Count
	})
	return dist
}

// ContractsByType returns the raw type -> count mapping.
func (a *Aggregator) ContractsByType() map[string]int {
	counts := make(map[string]int)
	for _, record := range a.contracts {
		counts[record.ContractType]++
	}
	return counts
}

// RecentDeployments filters records with an observed deployment, newest
// creation block first.
func (a *Aggregator) RecentDeployments() []*ContractRecord {
	var deployments []*ContractRecord
	for _, addr := range a.contractOrder {
		if record := a.contracts[addr]; record.DeploymentObserved() {
			deployments = append(deployments, record)
		}
	}
	sort.SliceStable(deployments, func(i, j int) bool {
		return deployments[i].CreationBlock > deployments[j].CreationBlock
	})
	return deployments
}

// TotalFunctionCalls sums call counts across every tracked selector.
func (a *Aggregator) TotalFunctionCalls() int {
	total := 0
	for _, stat := range a.functions {
		total += stat.CallCount
	}
	return total
}

// Lookup fetches one record by address, case-insensitively.
func (a *Aggregator) Lookup(address string) (*ContractRecord, bool) {
	record, ok := a.contracts[strings.ToLower(address)]
	return record, ok
}

func (a *Aggregator) inOrder() []*ContractRecord {
	records := make([]*ContractRecord, 0, len(a.contractOrder))
	for _, addr := range a.contractOrder {
		records = append(records, a.contracts[addr])
	}
	return records
}
