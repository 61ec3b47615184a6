// Package analytics orchestrates the scanning core per request and shapes
// the results for the tool and HTTP gateways. When the chain client fails
// it serves the last-known-good payload marked degraded instead of
// fabricating numbers.
package analytics

import (
	"context"
	"math/big"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"chainlens/internal/chain"
	"chainlens/internal/scanner"
	"chainlens/internal/store"
)

// Options carries the scan defaults the façade applies when a request
// leaves them unset.
type Options struct {
	ChainName      string
	DefaultBlocks  int
	SampleCeiling  int
	BlockDelay     time.Duration
	WhaleThreshold float64 // ETH
	CacheTTL       time.Duration
}

type Service struct {
	client  chain.Client
	engine  *scanner.Engine
	sampler *scanner.Sampler
	cache   *gocache.Cache
	store   *store.Store // nil when persistence is disabled
	opts    Options
}

func NewService(client chain.Client, snapshots *store.Store, opts Options) *Service {
	if opts.DefaultBlocks <= 0 {
		opts.DefaultBlocks = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.WhaleThreshold <= 0 {
		opts.WhaleThreshold = 100
	}

	return &Service{
		client:  client,
		engine:  scanner.NewEngine(client, opts.SampleCeiling, opts.BlockDelay, opts.DefaultBlocks),
		sampler: scanner.NewSampler(client, opts.SampleCeiling, opts.BlockDelay),
		cache:   gocache.New(opts.CacheTTL, opts.CacheTTL),
		store:   snapshots,
		opts:    opts,
	}
}

func okMeta() Meta {
	return Meta{Status: StatusOK, CapturedAt: time.Now().UTC()}
}

// metaFor marks results from a cancelled scan as partial: whatever was
// aggregated before the deadline is kept and returned, not discarded.
func metaFor(ctx context.Context) Meta {
	m := okMeta()
	if ctx.Err() != nil {
		m.Partial = true
	}
	return m
}

func (s *Service) blocksOrDefault(blocks int) int {
	if blocks <= 0 {
		return s.opts.DefaultBlocks
	}
	return blocks
}

// lastGood fetches the cached last successful payload for key. The second
// return reports whether one existed.
func (s *Service) lastGood(key string) (interface{}, bool) {
	return s.cache.Get(key)
}

func (s *Service) keepGood(key string, v interface{}) {
	s.cache.SetDefault(key, v)
}

// NetworkStats reports chain height, fee data and averages over a small
// window of recent blocks.
func (s *Service) NetworkStats(ctx context.Context) *NetworkStats {
	const key = "network_stats"

	stats, err := s.networkStats(ctx)
	if err != nil {
		log.Warnf("network stats unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(NetworkStats)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &NetworkStats{
			Meta:  Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			Chain: s.opts.ChainName,
		}
	}

	s.keepGood(key, *stats)
	return stats
}

func (s *Service) networkStats(ctx context.Context) (*NetworkStats, error) {
	height, err := s.client.BlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	stats := &NetworkStats{
		Meta:        okMeta(),
		Chain:       s.opts.ChainName,
		BlockHeight: height,
	}

	if fee, err := s.client.FeeData(ctx); err == nil && fee.GasPrice != nil {
		stats.GasPriceWei = weiString(fee.GasPrice)
		stats.GasPriceGwei = weiToGwei(fee.GasPrice)
	} else if err != nil {
		log.Warnf("fee data unavailable: %v", err)
		stats.GasPriceWei = "0"
	}

	// Averages over a handful of recent blocks; skip the ones that fail.
	window := 5
	var txTotal, blocksSeen int
	var utilizationSum float64
	var newest, oldest time.Time
	for i := 0; i < window && uint64(i) <= height; i++ {
		block, err := s.client.BlockByNumber(ctx, height-uint64(i))
		if err != nil {
			log.Warnf("skipping block %d in network stats: %v", height-uint64(i), err)
			continue
		}
		blocksSeen++
		txTotal += len(block.TxHashes)
		if block.GasLimit > 0 {
			utilizationSum += 100 * float64(block.GasUsed) / float64(block.GasLimit)
		}
		if newest.IsZero() {
			newest = block.Time
		}
		oldest = block.Time
	}

	stats.BlocksSampled = blocksSeen
	if blocksSeen > 0 {
		stats.AvgTxPerBlock = float64(txTotal) / float64(blocksSeen)
		stats.AvgGasUtilization = utilizationSum / float64(blocksSeen)
	}
	if blocksSeen > 1 {
		stats.AvgBlockSeconds = newest.Sub(oldest).Seconds() / float64(blocksSeen-1)
	}

	return stats, nil
}

// AnalyzeTransactions samples a block window and breaks it down by
// category, gas and transferred value.
func (s *Service) AnalyzeTransactions(ctx context.Context, blocks int) *TransactionAnalysis {
	const key = "tx_analysis"
	blocks = s.blocksOrDefault(blocks)

	agg, err := s.engine.Scan(ctx, blocks)
	if err != nil {
		log.Warnf("transaction analysis unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(TransactionAnalysis)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &TransactionAnalysis{
			Meta:           Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			BlocksAnalyzed: blocks,
			Categories:     map[string]int{},
			TotalValueWei:  "0",
		}
	}

	analysis := &TransactionAnalysis{
		Meta:                metaFor(ctx),
		BlocksAnalyzed:      blocks,
		SampledTransactions: agg.SampledCount(),
		Categories:          agg.Categories(),
		TotalGasUsed:        agg.TotalGas(),
		TotalValueWei:       weiString(agg.TotalValue()),
		TotalValueETH:       weiToEth(agg.TotalValue()),
	}
	if agg.SampledCount() > 0 {
		analysis.AvgGasPerTx = agg.TotalGas() / uint64(agg.SampledCount())
	}

	s.keepGood(key, *analysis)
	return analysis
}

// DetectWhales streams the sampled window and keeps plain transfers whose
// value clears the threshold (in ETH; 0 means the configured default).
func (s *Service) DetectWhales(ctx context.Context, blocks int, thresholdETH float64) *WhaleReport {
	const key = "whales"
	blocks = s.blocksOrDefault(blocks)
	if thresholdETH <= 0 {
		thresholdETH = s.opts.WhaleThreshold
	}
	thresholdWei := ethToWei(thresholdETH)

	report := &WhaleReport{
		Meta:           metaFor(ctx),
		ThresholdETH:   thresholdETH,
		BlocksAnalyzed: blocks,
		Transfers:      []WhaleTransfer{},
	}

	sampled := 0
	err := s.sampler.Scan(ctx, blocks, func(st scanner.SampledTransaction) {
		sampled++
		if st.Tx.Value == nil || st.Tx.Value.Cmp(thresholdWei) < 0 {
			return
		}
		report.Transfers = append(report.Transfers, WhaleTransfer{
			Hash:     st.Tx.Hash,
			From:     st.Tx.From,
			To:       st.Tx.To,
			ValueWei: weiString(st.Tx.Value),
			ValueETH: weiToEth(st.Tx.Value),
			Block:    st.BlockNumber,
			Time:     st.BlockTime,
		})
	})
	report.SampledTransactions = sampled
	report.Meta = metaFor(ctx)

	if err != nil {
		log.Warnf("whale detection unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(WhaleReport)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		report.Meta.Status = StatusDegraded
		return report
	}

	s.keepGood(key, *report)
	return report
}

// DeFiVolume sums the value moved through DEX-classified calls in the
// sampled window.
func (s *Service) DeFiVolume(ctx context.Context, blocks int) *DeFiVolume {
	const key = "defi_volume"
	blocks = s.blocksOrDefault(blocks)

	agg, err := s.engine.Scan(ctx, blocks)
	if err != nil {
		log.Warnf("defi volume unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(DeFiVolume)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &DeFiVolume{
			Meta:           Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			BlocksAnalyzed: blocks,
			VolumeWei:      "0",
		}
	}

	volumeWei, calls := agg.DEXVolume()
	volume := &DeFiVolume{
		Meta:           metaFor(ctx),
		BlocksAnalyzed: blocks,
		SwapCalls:      calls,
		VolumeWei:      weiString(volumeWei),
		VolumeETH:      weiToEth(volumeWei),
	}

	s.keepGood(key, *volume)
	return volume
}

// GasSnapshot reports current fee data plus utilization of the latest
// block.
func (s *Service) GasSnapshot(ctx context.Context) *GasSnapshot {
	const key = "gas"

	snap, err := s.gasSnapshot(ctx)
	if err != nil {
		log.Warnf("gas snapshot unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(GasSnapshot)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &GasSnapshot{
			Meta:        Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			GasPriceWei: "0",
		}
	}

	s.keepGood(key, *snap)
	return snap
}

func (s *Service) gasSnapshot(ctx context.Context) (*GasSnapshot, error) {
	fee, err := s.client.FeeData(ctx)
	if err != nil {
		return nil, err
	}

	gasPrice := fee.GasPrice
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	snap := &GasSnapshot{
		Meta:         okMeta(),
		GasPriceWei:  weiString(gasPrice),
		GasPriceGwei: weiToGwei(gasPrice),
	}

	if height, err := s.client.BlockHeight(ctx); err == nil {
		if block, err := s.client.BlockByNumber(ctx, height); err == nil {
			snap.LatestBlock = block.Number
			snap.GasUsed = block.GasUsed
			snap.GasLimit = block.GasLimit
			if block.GasLimit > 0 {
				snap.Utilization = 100 * float64(block.GasUsed) / float64(block.GasLimit)
			}
		}
	}

	return snap, nil
}

// DiscoverActiveContracts ranks contracts in the sampled window by
// interaction count.
func (s *Service) DiscoverActiveContracts(ctx context.Context, blocks int) *ContractList {
	const key = "active_contracts"
	blocks = s.blocksOrDefault(blocks)

	records, err := s.engine.DiscoverActiveContracts(ctx, blocks)
	if err != nil {
		log.Warnf("contract discovery unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(ContractList)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &ContractList{
			Meta:      Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			Contracts: []*scanner.ContractRecord{},
		}
	}

	list := &ContractList{Meta: metaFor(ctx), Contracts: records}
	s.keepGood(key, *list)
	return list
}

// PopularFunctions ranks selectors in the sampled window by call count.
func (s *Service) PopularFunctions(ctx context.Context, blocks, limit int) *FunctionList {
	const key = "popular_functions"
	blocks = s.blocksOrDefault(blocks)

	stats, err := s.engine.GetPopularFunctions(ctx, blocks, limit)
	if err != nil {
		log.Warnf("function ranking unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(FunctionList)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &FunctionList{
			Meta:      Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			Functions: []*scanner.FunctionStat{},
		}
	}

	list := &FunctionList{Meta: metaFor(ctx), Functions: stats}
	s.keepGood(key, *list)
	return list
}

// ContractsByType groups the sampled window's contracts by inferred type.
func (s *Service) ContractsByType(ctx context.Context, blocks int) *TypeBreakdown {
	const key = "contract_types"
	blocks = s.blocksOrDefault(blocks)

	types, err := s.engine.GetContractsByType(ctx, blocks)
	if err != nil {
		log.Warnf("type breakdown unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(TypeBreakdown)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &TypeBreakdown{
			Meta:  Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			Types: map[string]int{},
		}
	}

	breakdown := &TypeBreakdown{Meta: metaFor(ctx), Types: types}
	s.keepGood(key, *breakdown)
	return breakdown
}

// NewDeployments lists deployments observed in the window within the last
// hoursBack hours.
func (s *Service) NewDeployments(ctx context.Context, blocks, hoursBack int) *ContractList {
	const key = "deployments"
	blocks = s.blocksOrDefault(blocks)

	records, err := s.engine.GetNewDeployments(ctx, blocks, hoursBack)
	if err != nil {
		log.Warnf("deployment listing unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(ContractList)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &ContractList{
			Meta:      Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			Contracts: []*scanner.ContractRecord{},
		}
	}

	list := &ContractList{Meta: metaFor(ctx), Contracts: records}
	s.keepGood(key, *list)
	return list
}

// EcosystemSummary composes the four ranked views over a single scan and
// persists a snapshot when a store is configured.
func (s *Service) EcosystemSummary(ctx context.Context, blocks int) *EcosystemReport {
	const key = "ecosystem"
	blocks = s.blocksOrDefault(blocks)

	summary, err := s.engine.GetEcosystemSummary(ctx, blocks)
	if err != nil {
		log.Warnf("ecosystem summary unavailable: %v", err)
		if cached, ok := s.lastGood(key); ok {
			prev := cached.(EcosystemReport)
			prev.Meta.Status = StatusDegraded
			return &prev
		}
		return &EcosystemReport{
			Meta:    Meta{Status: StatusDegraded, CapturedAt: time.Now().UTC()},
			Summary: &scanner.EcosystemSummary{},
		}
	}

	report := &EcosystemReport{Meta: metaFor(ctx), Summary: summary}
	s.keepGood(key, *report)

	if s.store != nil {
		if err := s.store.Save("ecosystem", report); err != nil {
			log.Warnf("failed to persist ecosystem snapshot: %v", err)
		}
	}

	return report
}
