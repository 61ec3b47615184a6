// Package render formats analytics results as human-readable text for the
// tool gateway. The HTTP gateway returns the raw JSON instead.
package render

import (
	"fmt"
	"strings"
	"time"

	"chainlens/internal/analytics"
	"chainlens/internal/scanner"
)

func writeMeta(sb *strings.Builder, meta analytics.Meta) {
	if meta.Status == analytics.StatusDegraded {
		sb.WriteString(fmt.Sprintf("⚠️ DEGRADED: chain unreachable, data captured %s\n\n",
			meta.CapturedAt.Format(time.RFC3339)))
	}
	if meta.Partial {
		sb.WriteString("Note: scan cancelled early, results cover a partial window.\n\n")
	}
}

func NetworkStats(stats *analytics.NetworkStats) string {
	var sb strings.Builder

	sb.WriteString("# Network Stats\n\n")
	writeMeta(&sb, stats.Meta)
	sb.WriteString(fmt.Sprintf("**Chain:** %s\n", stats.Chain))
	sb.WriteString(fmt.Sprintf("**Block Height:** %d\n", stats.BlockHeight))
	sb.WriteString(fmt.Sprintf("**Gas Price:** %.2f gwei\n", stats.GasPriceGwei))
	sb.WriteString(fmt.Sprintf("**Avg Tx/Block:** %.1f (over %d blocks)\n", stats.AvgTxPerBlock, stats.BlocksSampled))
	sb.WriteString(fmt.Sprintf("**Avg Block Time:** %.1fs\n", stats.AvgBlockSeconds))
	sb.WriteString(fmt.Sprintf("**Gas Utilization:** %.1f%%\n", stats.AvgGasUtilization))

	return sb.String()
}

func TransactionAnalysis(a *analytics.TransactionAnalysis) string {
	var sb strings.Builder

	sb.WriteString("# Transaction Analysis\n\n")
	writeMeta(&sb, a.Meta)
	sb.WriteString(fmt.Sprintf("**Blocks Analyzed:** %d\n", a.BlocksAnalyzed))
	sb.WriteString(fmt.Sprintf("**Sampled Transactions:** %d\n", a.SampledTransactions))
	sb.WriteString(fmt.Sprintf("**Total Gas Used:** %d (avg %d/tx)\n", a.TotalGasUsed, a.AvgGasPerTx))
	sb.WriteString(fmt.Sprintf("**Total Value:** %.4f ETH\n\n", a.TotalValueETH))

	if len(a.Categories) > 0 {
		sb.WriteString("## Categories\n\n")
		for _, cat := range []string{"Transfer", "Contract Call", "Contract Deploy"} {
			if count, ok := a.Categories[cat]; ok {
				sb.WriteString(fmt.Sprintf("- %s: %d\n", cat, count))
			}
		}
	}

	return sb.String()
}

func Whales(report *analytics.WhaleReport) string {
	var sb strings.Builder

	sb.WriteString("# Whale Transfers\n\n")
	writeMeta(&sb, report.Meta)
	sb.WriteString(fmt.Sprintf("**Threshold:** %.2f ETH\n", report.ThresholdETH))
	sb.WriteString(fmt.Sprintf("**Blocks Analyzed:** %d (%d sampled txs)\n\n", report.BlocksAnalyzed, report.SampledTransactions))

	if len(report.Transfers) == 0 {
		sb.WriteString("No transfers above the threshold in the sampled window.\n")
		return sb.String()
	}

	for i, t := range report.Transfers {
		sb.WriteString(fmt.Sprintf("%d. **%.2f ETH** — %s\n", i+1, t.ValueETH, t.Hash))
		sb.WriteString(fmt.Sprintf("   %s → %s (block %d)\n", t.From, t.To, t.Block))
	}

	return sb.String()
}

func Contracts(list *analytics.ContractList, title string) string {
	var sb strings.Builder

	sb.WriteString("# " + title + "\n\n")
	writeMeta(&sb, list.Meta)

	if len(list.Contracts) == 0 {
		sb.WriteString("No contracts observed in the sampled window.\n")
		return sb.String()
	}

	for i, c := range list.Contracts {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", i+1, c.Address, c.ContractType))
		sb.WriteString(fmt.Sprintf("   interactions: %d, unique callers: %d, gas: %d\n",
			c.TotalInteractions, c.UniqueCallerCount, c.GasUsed))
		if c.DeploymentObserved() {
			sb.WriteString(fmt.Sprintf("   deployed by %s at block %d\n", c.Creator, c.CreationBlock))
		}
	}

	return sb.String()
}

func Functions(list *analytics.FunctionList) string {
	var sb strings.Builder

	sb.WriteString("# Popular Functions\n\n")
	writeMeta(&sb, list.Meta)

	if len(list.Functions) == 0 {
		sb.WriteString("No function calls observed in the sampled window.\n")
		return sb.String()
	}

	for i, f := range list.Functions {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", i+1, f.Name, f.Signature))
		sb.WriteString(fmt.Sprintf("   calls: %d, avg gas/call: %d\n", f.CallCount, f.AvgGasPerCall()))
	}

	return sb.String()
}

func Types(breakdown *analytics.TypeBreakdown) string {
	var sb strings.Builder

	sb.WriteString("# Contract Types\n\n")
	writeMeta(&sb, breakdown.Meta)

	if len(breakdown.Types) == 0 {
		sb.WriteString("No contracts observed in the sampled window.\n")
		return sb.String()
	}

	for t, count := range breakdown.Types {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", t, count))
	}

	return sb.String()
}

func DeFiVolume(v *analytics.DeFiVolume) string {
	var sb strings.Builder

	sb.WriteString("# DeFi Volume\n\n")
	writeMeta(&sb, v.Meta)
	sb.WriteString(fmt.Sprintf("**Blocks Analyzed:** %d\n", v.BlocksAnalyzed))
	sb.WriteString(fmt.Sprintf("**DEX Calls:** %d\n", v.SwapCalls))
	sb.WriteString(fmt.Sprintf("**Volume:** %.4f ETH\n", v.VolumeETH))

	return sb.String()
}

func Gas(snap *analytics.GasSnapshot) string {
	var sb strings.Builder

	sb.WriteString("# Gas\n\n")
	writeMeta(&sb, snap.Meta)
	sb.WriteString(fmt.Sprintf("**Gas Price:** %.2f gwei (%s wei)\n", snap.GasPriceGwei, snap.GasPriceWei))
	if snap.LatestBlock > 0 {
		sb.WriteString(fmt.Sprintf("**Latest Block:** %d — %d/%d gas (%.1f%%)\n",
			snap.LatestBlock, snap.GasUsed, snap.GasLimit, snap.Utilization))
	}

	return sb.String()
}

func Ecosystem(report *analytics.EcosystemReport) string {
	var sb strings.Builder

	sb.WriteString("# Ecosystem Summary\n\n")
	writeMeta(&sb, report.Meta)

	s := report.Summary
	sb.WriteString(fmt.Sprintf("**Contracts Observed:** %d\n", s.TotalContracts))
	sb.WriteString(fmt.Sprintf("**Sampled Transactions:** %d\n", s.SampledTransactions))
	sb.WriteString(fmt.Sprintf("**Function Calls Tracked:** %d\n\n", s.TotalFunctionCalls))

	if len(s.TypeDistribution) > 0 {
		sb.WriteString("## Type Distribution\n\n")
		for _, tc := range s.TypeDistribution {
			sb.WriteString(fmt.Sprintf("- %s: %d (%d%%)\n", tc.Type, tc.Count, tc.Percentage))
		}
		sb.WriteString("\n")
	}

	if len(s.MostActive) > 0 {
		sb.WriteString("## Most Active Contracts\n\n")
		writeTopContracts(&sb, s.MostActive, 5)
	}

	if len(s.PopularFunctions) > 0 {
		sb.WriteString("## Popular Functions\n\n")
		for i, f := range s.PopularFunctions {
			if i >= 5 {
				break
			}
			sb.WriteString(fmt.Sprintf("%d. %s — %d calls\n", i+1, f.Name, f.CallCount))
		}
		sb.WriteString("\n")
	}

	if len(s.RecentDeployments) > 0 {
		sb.WriteString("## Recent Deployments\n\n")
		writeTopContracts(&sb, s.RecentDeployments, 5)
	}

	return sb.String()
}

func writeTopContracts(sb *strings.Builder, records []*scanner.ContractRecord, limit int) {
	for i, c := range records {
		if i >= limit {
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s (%s) — %d interactions\n", i+1, c.Address, c.ContractType, c.TotalInteractions))
	}
	sb.WriteString("\n")
}
