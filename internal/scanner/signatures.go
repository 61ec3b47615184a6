package scanner

// Transaction categories.
const (
	CategoryDeploy   = "Contract Deploy"
	CategoryTransfer = "Transfer"
	CategoryCall     = "Contract Call"
)

// Contract-type labels.
const (
	TypeERC20       = "ERC20 Token"
	TypeERC721      = "ERC721 NFT"
	TypeDEX         = "DEX"
	TypeLending     = "Lending"
	TypeStaking     = "Staking"
	TypeComplexDeFi = "Complex DeFi"
	TypeMultiFunc   = "Multi-Function"
	TypeStandard    = "Standard Contract"
	TypeUnknown     = "Unknown"
)

// selectorGroup binds a contract-type label to the selectors that imply it.
type selectorGroup struct {
	contractType string
	selectors    []string
}

// typeSelectors is checked in order, first match wins. The order matters:
// 0x2e1a7d4d (withdraw) is used by both lending and staking contracts, so
// it always resolves to Lending here. That imprecision is inherent to
// selector-based classification and is intentional.
var typeSelectors = []selectorGroup{
	{TypeERC20, []string{
		"0xa9059cbb", // transfer(address,uint256)
		"0x23b872dd", // transferFrom(address,address,uint256)
		"0x095ea7b3", // approve(address,uint256)
	}},
	{TypeERC721, []string{
		"0x42842e0e", // safeTransferFrom(address,address,uint256)
		"0xb88d4fde", // safeTransferFrom(address,address,uint256,bytes)
	}},
	{TypeDEX, []string{
		"0xd06ca61f", // getAmountsOut(uint256,address[])
		"0x38ed1739", // swapExactTokensForTokens(uint256,uint256,address[],address,uint256)
		"0x7ff36ab5", // swapExactETHForTokens(uint256,address[],address,uint256)
	}},
	{TypeLending, []string{
		"0xe2bbb158", // deposit(uint256,uint256)
		"0x2e1a7d4d", // withdraw(uint256) -- shared with staking
		"0xc5ebeaec", // borrow(uint256)
	}},
	{TypeStaking, []string{
		"0xa694fc3a", // stake(uint256)
		"0x2e1a7d4d", // withdraw(uint256) -- shadowed by the lending entry above
	}},
}

// knownFunctionNames resolves selectors to human-readable signatures.
var knownFunctionNames = map[string]string{
	"0xa9059cbb": "transfer(address,uint256)",
	"0x23b872dd": "transferFrom(address,address,uint256)",
	"0x095ea7b3": "approve(address,uint256)",
	"0x42842e0e": "safeTransferFrom(address,address,uint256)",
	"0xb88d4fde": "safeTransferFrom(address,address,uint256,bytes)",
	"0xd06ca61f": "getAmountsOut(uint256,address[])",
	"0x38ed1739": "swapExactTokensForTokens(uint256,uint256,address[],address,uint256)",
	"0x7ff36ab5": "swapExactETHForTokens(uint256,address[],address,uint256)",
	"0xe2bbb158": "deposit(uint256,uint256)",
	"0x2e1a7d4d": "withdraw(uint256)",
	"0xc5ebeaec": "borrow(uint256)",
	"0xa694fc3a": "stake(uint256)",
	"0x70a08231": "balanceOf(address)",
	"0x18160ddd": "totalSupply()",
	"0xdd62ed3e": "allowance(address,address)",
}
