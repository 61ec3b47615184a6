package tools

import (
	"context"

	"chainlens/internal/analytics"
	"chainlens/internal/render"
)

func blocksSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"blocks": map[string]interface{}{
				"type":        "number",
				"description": "How many recent blocks to analyze (default from config, typically 5)",
			},
		},
	}
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// NewAnalyticsRegistry wires every façade operation into a tool registry.
func NewAnalyticsRegistry(svc *analytics.Service) *Registry {
	r := NewRegistry()

	r.Register(&funcTool{
		name:        "get_network_stats",
		description: "Current chain height, gas price and recent-block throughput averages",
		schema:      emptySchema(),
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.NetworkStats(svc.NetworkStats(ctx)), nil
		},
	})

	r.Register(&funcTool{
		name:        "analyze_transactions",
		description: "Sample recent blocks and break transactions down by category, gas and value",
		schema:      blocksSchema(),
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.TransactionAnalysis(svc.AnalyzeTransactions(ctx, intArg(args, "blocks", 0))), nil
		},
	})

	r.Register(&funcTool{
		name:        "discover_contracts",
		description: "Rank the most active contracts observed in recent blocks",
		schema:      blocksSchema(),
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.Contracts(svc.DiscoverActiveContracts(ctx, intArg(args, "blocks", 0)), "Most Active Contracts"), nil
		},
	})

	r.Register(&funcTool{
		name:        "get_popular_functions",
		description: "Rank the most-called function selectors observed in recent blocks",
		schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"blocks": map[string]interface{}{"type": "number", "description": "How many recent blocks to analyze"},
				"limit":  map[string]interface{}{"type": "number", "description": "Max functions to return (default 10)"},
			},
		},
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.Functions(svc.PopularFunctions(ctx, intArg(args, "blocks", 0), intArg(args, "limit", 10))), nil
		},
	})

	r.Register(&funcTool{
		name:        "get_contract_types",
		description: "Group contracts observed in recent blocks by inferred type (token, NFT, DEX, lending, staking)",
		schema:      blocksSchema(),
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.Types(svc.ContractsByType(ctx, intArg(args, "blocks", 0))), nil
		},
	})

	r.Register(&funcTool{
		name:        "get_new_deployments",
		description: "List contract deployments observed in recent blocks",
		schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"blocks": map[string]interface{}{"type": "number", "description": "How many recent blocks to analyze"},
				"hours":  map[string]interface{}{"type": "number", "description": "Only deployments within the last N hours (0 = no filter)"},
			},
		},
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.Contracts(svc.NewDeployments(ctx, intArg(args, "blocks", 0), intArg(args, "hours", 0)), "Recent Deployments"), nil
		},
	})

	r.Register(&funcTool{
		name:        "detect_whale_transfers",
		description: "Find plain value transfers above a threshold in recent blocks",
		schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"blocks":    map[string]interface{}{"type": "number", "description": "How many recent blocks to analyze"},
				"threshold": map[string]interface{}{"type": "number", "description": "Minimum transfer size in ETH (default from config)"},
			},
		},
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.Whales(svc.DetectWhales(ctx, intArg(args, "blocks", 0), floatArg(args, "threshold", 0))), nil
		},
	})

	r.Register(&funcTool{
		name:        "get_defi_volume",
		description: "Sum the value moved through DEX-classified calls in recent blocks",
		schema:      blocksSchema(),
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.DeFiVolume(svc.DeFiVolume(ctx, intArg(args, "blocks", 0))), nil
		},
	})

	r.Register(&funcTool{
		name:        "get_gas_price",
		description: "Current gas price and latest-block utilization",
		schema:      emptySchema(),
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.Gas(svc.GasSnapshot(ctx)), nil
		},
	})

	r.Register(&funcTool{
		name:        "get_ecosystem_summary",
		description: "One-shot summary: active contracts, popular functions, type distribution and recent deployments",
		schema:      blocksSchema(),
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return render.Ecosystem(svc.EcosystemSummary(ctx, intArg(args, "blocks", 0))), nil
		},
	})

	return r
}
