package book

import (
	"fmt"

	"github.com/shopspring/decimal"

	"matchbook/infra/sequence"
)

// Book is the owner of record for one instrument: every Order lives in
// its registry for the session, both price ladders hold handles into it,
// and every Execution leaves through its sink in production order.
//
// The book is single-writer by design. Price-time priority and the
// conservation invariants only mean anything under one total order of
// events, so exactly one goroutine may call Submit; parallelism belongs
// at the instrument level, one book per worker.
type Book struct {
	symbol string

	orders map[uint64]*Order
	bids   *Ladder
	asks   *Ladder

	orderSeq *sequence.Sequencer
	execSeq  *sequence.Sequencer
	sink     ExecutionSink
}

func New(symbol string, orderSeq, execSeq *sequence.Sequencer, sink ExecutionSink) *Book {
	return &Book{
		symbol:   symbol,
		orders:   make(map[uint64]*Order),
		bids:     NewLadder(Buy),
		asks:     NewLadder(Sell),
		orderSeq: orderSeq,
		execSeq:  execSeq,
		sink:     sink,
	}
}

func (b *Book) Symbol() string {
	return b.symbol
}

// Order looks up any order ever admitted, resting or terminal.
func (b *Book) Order(id uint64) (*Order, error) {
	o, ok := b.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrder, id)
	}
	return o, nil
}

func (b *Book) register(o *Order) {
	b.orders[o.ID] = o
}

// mustOrder resolves a queue handle. A dangling handle means the queue
// and the registry disagree, which is a defect, not an input error.
func (b *Book) mustOrder(id uint64) *Order {
	o, ok := b.orders[id]
	if !ok {
		panic(fmt.Sprintf("book: queued order %d missing from registry", id))
	}
	return o
}

func (b *Book) nextExecutionID() uint64 {
	return b.execSeq.Next()
}

// SubmitResult is the taker's view after one matching pass.
type SubmitResult struct {
	OrderID     uint64
	ExecutedQty int64
	Remaining   int64
	AvgPrice    decimal.Decimal
	Rested      bool
}

// Submit runs one incoming order end to end: sweep opposing levels
// best-price-first while the taker crosses, then rest any remainder at
// the taker's own price. Executions committed before an abort stand;
// after a self-trade the remainder is left unmatched and not rested.
func (b *Book) Submit(spec OrderSpec) (SubmitResult, error) {
	if spec.Symbol != b.symbol {
		return SubmitResult{}, fmt.Errorf("%w: got %q, want %q", ErrSymbolMismatch, spec.Symbol, b.symbol)
	}
	if spec.Shares <= 0 {
		return SubmitResult{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, spec.Shares)
	}
	if spec.Price <= 0 {
		return SubmitResult{}, fmt.Errorf("%w: %d", ErrInvalidPrice, spec.Price)
	}

	id := b.orderSeq.Next()
	taker := newTaker(spec)

	opposing, own := b.asks, b.bids
	if spec.Side == Sell {
		opposing, own = b.bids, b.asks
	}

	var fillErr error
	for taker.Shares > 0 {
		best := opposing.Best()
		if best == nil || !crosses(spec.Side, spec.Price, best.Price) {
			break
		}
		fillErr = best.ProcessFill(&taker, id, b)
		if best.Empty() {
			opposing.Remove(best.Price)
		}
		if fillErr != nil {
			break
		}
	}

	res := SubmitResult{
		OrderID:     id,
		ExecutedQty: taker.ExecutedQty,
		Remaining:   taker.Shares,
		AvgPrice:    taker.AvgPrice,
	}
	if fillErr != nil {
		return res, fillErr
	}

	if taker.Shares > 0 {
		own.GetOrCreate(spec.Price).AddOrder(spec, b, id)
		res.Rested = true
	}
	return res, nil
}

func crosses(side Side, limit, best int64) bool {
	if side == Buy {
		return best <= limit
	}
	return best >= limit
}

// Level is one row of a depth view.
type Level struct {
	Price  int64
	Orders int
	Volume int64
}

// Depth returns up to max levels for one side, best-first. max <= 0
// means all levels.
func (b *Book) Depth(side Side, max int) []Level {
	ladder := b.bids
	if side == Sell {
		ladder = b.asks
	}
	out := make([]Level, 0, ladder.Len())
	ladder.Walk(func(l *Limit) bool {
		out = append(out, Level{Price: l.Price, Orders: l.OrderCount, Volume: l.TotalVolume})
		return max <= 0 || len(out) < max
	})
	return out
}
