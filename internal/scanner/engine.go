package scanner

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"chainlens/internal/chain"
)

// Engine is the boundary between the sampling/classification core and the
// analytics façade. Each call builds its own aggregator, runs one scan and
// discards the working state when the result is returned.
type Engine struct {
	sampler       *Sampler
	defaultBlocks int
}

// EcosystemSummary composes the four ranked views over a single scan.
type EcosystemSummary struct {
	MostActive          []*ContractRecord `json:"mostActive"`
	PopularFunctions    []*FunctionStat   `json:"popularFunctions"`
	TypeDistribution    []TypeCount       `json:"typeDistribution"`
	RecentDeployments   []*ContractRecord `json:"recentDeployments"`
	TotalContracts      int               `json:"totalContracts"`
	TotalFunctionCalls  int               `json:"totalFunctionCalls"`
	SampledTransactions int               `json:"sampledTransactions"`
}

func NewEngine(client chain.Client, ceiling int, blockDelay time.Duration, defaultBlocks int) *Engine {
	if defaultBlocks <= 0 {
		defaultBlocks = 5
	}
	return &Engine{
		sampler:       NewSampler(client, ceiling, blockDelay),
		defaultBlocks: defaultBlocks,
	}
}

// Scan runs one sampling pass and returns the populated aggregator. The
// only fatal condition is a failed height fetch; a window where every
// block fetch failed comes back as an empty aggregator, observably
// identical to zero on-chain activity (the distinction lives in the warn
// logs).
func (e *Engine) Scan(ctx context.Context, blocks int) (*Aggregator, error) {
	if blocks <= 0 {
		blocks = e.defaultBlocks
	}

	agg := NewAggregator()
	start := time.Now()
	if err := e.sampler.Scan(ctx, blocks, agg.Fold); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"blocks":    blocks,
		"sampled":   agg.SampledCount(),
		"contracts": len(agg.contracts),
		"took":      time.Since(start).Round(time.Millisecond),
	}).Info("scan complete")

	return agg, nil
}

// DiscoverActiveContracts scans and ranks contracts by interaction count.
func (e *Engine) DiscoverActiveContracts(ctx context.Context, blocks int) ([]*ContractRecord, error) {
	agg, err := e.Scan(ctx, blocks)
	if err != nil {
		return nil, err
	}
	return agg.MostActive(), nil
}

// GetPopularFunctions scans and ranks selectors by call count.
func (e *Engine) GetPopularFunctions(ctx context.Context, blocks, limit int) ([]*FunctionStat, error) {
	agg, err := e.Scan(ctx, blocks)
	if err != nil {
		return nil, err
	}
	return agg.PopularFunctions(limit), nil
}

// GetContractsByType scans and groups contracts by inferred type.
func (e *Engine) GetContractsByType(ctx context.Context, blocks int) (map[string]int, error) {
	agg, err := e.Scan(ctx, blocks)
	if err != nil {
		return nil, err
	}
	return agg.ContractsByType(), nil
}

// GetNewDeployments scans and returns deployment records observed within
// the last hoursBack hours, newest creation block first.
func (e *Engine) GetNewDeployments(ctx context.Context, blocks, hoursBack int) ([]*ContractRecord, error) {
	agg, err := e.Scan(ctx, blocks)
	if err != nil {
		return nil, err
	}

	deployments := agg.RecentDeployments()
	if hoursBack <= 0 {
		return deployments, nil
	}

	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)
	recent := make([]*ContractRecord, 0, len(deployments))
	for _, d := range deployments {
		if d.FirstSeen.After(cutoff) {
			recent = append(recent, d)
		}
	}
	return recent, nil
}

// GetEcosystemSummary runs one scan and computes the four read views
// concurrently. The views are pure functions over the finished aggregator,
// so they carry no ordering dependency between them.
func (e *Engine) GetEcosystemSummary(ctx context.Context, blocks int) (*EcosystemSummary, error) {
	agg, err := e.Scan(ctx, blocks)
	if err != nil {
		return nil, err
	}

	summary := &EcosystemSummary{
		TotalContracts:      len(agg.contracts),
		SampledTransactions: agg.SampledCount(),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary.MostActive = agg.MostActive()
		return nil
	})
	g.Go(func() error {
		summary.PopularFunctions = agg.PopularFunctions(10)
		return nil
	})
	g.Go(func() error {
		summary.TypeDistribution = agg.TypeDistribution()
		return nil
	})
	g.Go(func() error {
		summary.RecentDeployments = agg.RecentDeployments()
		return nil
	})
	g.Go(func() error {
		summary.TotalFunctionCalls = agg.TotalFunctionCalls()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summary, nil
}
