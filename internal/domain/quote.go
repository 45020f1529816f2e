package domain

// Quote is the validated shape of an aggregator order response.
// UnsignedTx and RequestID are held verbatim so confirmation signs exactly
// what was quoted.
type Quote struct {
	OutAmountEst   string  // estimated output in atomic units
	UnsignedTx     string  // base64 unsigned transaction
	RequestID      string  // aggregator request id for execution
	PriceImpactPct float64
}

// OrderRequest describes the swap to quote through the aggregator.
type OrderRequest struct {
	InputMint   string
	OutputMint  string
	AmountRaw   uint64 // smallest units of the input mint
	Taker       string // wallet address paying for and signing the swap
	SlippageBps int
}

// SubmitResult is the terminal outcome reported by a chain submitter.
type SubmitResult struct {
	Signature     string
	Landed        bool
	ActualOut     string // atomic units, empty unless landed
	FailureReason string // empty unless failed
}
