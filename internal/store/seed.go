package store

// SeededChain is one row of the fixed chain list created at schema
// init.
type SeededChain struct {
	Name        string
	DisplayName string
}

// SeededChains is the fixed two-chain list this system supports.
var SeededChains = []SeededChain{
	{Name: "shufersal", DisplayName: "Shufersal"},
	{Name: "victory", DisplayName: "Victory"},
}
