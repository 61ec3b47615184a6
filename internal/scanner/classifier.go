package scanner

import (
	"encoding/hex"
	"fmt"

	"chainlens/internal/chain"
)

// Gas-usage bands used when no selector matches. Thresholds are exclusive.
const (
	gasBandComplex  = 1_000_000
	gasBandMulti    = 500_000
	gasBandStandard = 100_000
)

// Classify assigns the transaction category. Exactly one applies, decided
// in precedence order: missing recipient, empty calldata, everything else.
func Classify(tx *chain.Transaction) string {
	if tx.To == "" {
		return CategoryDeploy
	}
	if len(tx.Data) == 0 {
		return CategoryTransfer
	}
	return CategoryCall
}

// Selector extracts the leading 4-byte calldata prefix as "0x"-hex, or ""
// when the calldata is shorter than 4 bytes.
func Selector(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	return "0x" + hex.EncodeToString(data[:4])
}

// selectorType resolves a selector through the ordered type table; first
// match wins.
func selectorType(sel string) (string, bool) {
	for _, group := range typeSelectors {
		for _, s := range group.selectors {
			if s == sel {
				return group.contractType, true
			}
		}
	}
	return "", false
}

// InferContractType maps calldata and gas usage to a coarse contract-type
// label. The selector table wins over the gas bands; a known selector with
// 2M gas is still classified by the selector. Heuristic only.
func InferContractType(data []byte, gasUsed uint64) string {
	if sel := Selector(data); sel != "" {
		if t, ok := selectorType(sel); ok {
			return t
		}
	}

	switch {
	case gasUsed > gasBandComplex:
		return TypeComplexDeFi
	case gasUsed > gasBandMulti:
		return TypeMultiFunc
	case gasUsed > gasBandStandard:
		return TypeStandard
	default:
		return TypeUnknown
	}
}

// FunctionName resolves a selector to a readable signature, or a
// synthesized label for selectors outside the known table.
func FunctionName(selector string) string {
	if name, ok := knownFunctionNames[selector]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%s)", selector)
}
