package book

import "github.com/shopspring/decimal"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// ExecType classifies a single execution event for one party.
type ExecType int

const (
	PartialFill ExecType = iota
	FullFill
)

func (t ExecType) String() string {
	if t == FullFill {
		return "full_fill"
	}
	return "partial_fill"
}

// OrderSpec is what the intake layer submits: validated against the
// book's symbol before it reaches matching.
type OrderSpec struct {
	Symbol   string
	ClientID uint64
	Side     Side
	Price    int64
	Shares   int64
}

// Order is a resting order. Identity is fixed at creation; fill state is
// mutated only by the matching loop. Shares + ExecutedQty stays equal to
// the originally submitted quantity for the order's whole lifetime.
type Order struct {
	ID       uint64
	ClientID uint64
	Symbol   string
	Side     Side
	Price    int64

	Shares      int64 // remaining, strictly decreasing
	ExecutedQty int64 // cumulative, non-decreasing
	AvgPrice    decimal.Decimal
}

// Submitted returns the originally submitted quantity.
func (o *Order) Submitted() int64 {
	return o.Shares + o.ExecutedQty
}

// Filled reports whether the order is terminal.
func (o *Order) Filled() bool {
	return o.Shares == 0
}

// Taker is the transient working record for one matching pass. It is
// never aliased into the book; an unfilled remainder is admitted as a
// fresh Order instead.
type Taker struct {
	ClientID    uint64
	Side        Side
	Price       int64
	Shares      int64
	ExecutedQty int64
	AvgPrice    decimal.Decimal
}

func newTaker(spec OrderSpec) Taker {
	return Taker{
		ClientID: spec.ClientID,
		Side:     spec.Side,
		Price:    spec.Price,
		Shares:   spec.Shares,
	}
}

// vwap folds one execution into a running volume-weighted average price.
// The update commutes, so the final average is independent of fill order.
func vwap(prevQty int64, prevAvg decimal.Decimal, qty, price int64) decimal.Decimal {
	notional := prevAvg.Mul(decimal.NewFromInt(prevQty)).
		Add(decimal.NewFromInt(qty).Mul(decimal.NewFromInt(price)))
	return notional.Div(decimal.NewFromInt(prevQty + qty))
}
