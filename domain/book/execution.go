package book

import "github.com/shopspring/decimal"

// Execution is one atomic trade between exactly one maker and one taker.
// It is immutable once constructed and carries both parties' post-trade
// accounting, so reporting never has to recompute either view.
type Execution struct {
	Symbol string
	ID     uint64

	MakerOrderID uint64
	TakerOrderID uint64

	// Price is always the maker's resting price; improvement accrues
	// to the taker.
	Price    int64
	Quantity int64

	MakerSide Side
	TakerSide Side

	MakerExecType ExecType
	TakerExecType ExecType

	MakerClientID uint64
	TakerClientID uint64

	MakerExecutedQty int64
	TakerExecutedQty int64
	MakerRemaining   int64
	TakerRemaining   int64

	MakerAvgPrice decimal.Decimal
	TakerAvgPrice decimal.Decimal
}

// ExecutionSink receives every execution in the exact order it was
// produced, across all price levels of the book. The push to the sink is
// the only externally observable effect of a match, and the sink must
// not drop records: an append error aborts the match before any book
// state changes.
type ExecutionSink interface {
	Append(*Execution) error
}
