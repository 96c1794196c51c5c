package book

import "fmt"

// Limit is one price level: a FIFO queue of order ids in strict time
// priority plus the aggregates the ladder exposes. The queue holds
// handles into the book's registry, never the records themselves.
type Limit struct {
	Price int64

	queue []uint64
	head  int

	OrderCount  int
	TotalVolume int64
}

func NewLimit(price int64) *Limit {
	return &Limit{Price: price}
}

func (l *Limit) Empty() bool {
	return l.OrderCount == 0
}

func (l *Limit) pushTail(id uint64) {
	l.queue = append(l.queue, id)
	l.OrderCount++
}

func (l *Limit) peekHead() (uint64, bool) {
	if l.head >= len(l.queue) {
		return 0, false
	}
	return l.queue[l.head], true
}

func (l *Limit) popHead() {
	if l.head >= len(l.queue) {
		return
	}
	l.head++
	l.OrderCount--
	if l.head == len(l.queue) {
		l.queue = l.queue[:0]
		l.head = 0
	}
}

// AddOrder admits a new resting order at this level: constructed at the
// level's price, appended at the tail, registered with the book under
// newID. Price routing correctness is the caller's responsibility.
func (l *Limit) AddOrder(spec OrderSpec, b *Book, newID uint64) *Order {
	o := &Order{
		ID:       newID,
		ClientID: spec.ClientID,
		Symbol:   spec.Symbol,
		Side:     spec.Side,
		Price:    l.Price,
		Shares:   spec.Shares,
	}
	l.pushTail(o.ID)
	l.TotalVolume += o.Shares
	b.register(o)
	return o
}

// ProcessFill consumes the taker against this level's queue, oldest
// order first. It stops when the queue is exhausted or the taker is.
// Each match commits atomically: the execution is built and appended to
// the sink first, and only then are the maker, the taker and the level
// aggregates mutated. A self-trade or sink failure therefore leaves the
// in-flight match entirely unobserved.
func (l *Limit) ProcessFill(taker *Taker, takerID uint64, b *Book) error {
	for l.OrderCount > 0 && taker.Shares > 0 {
		id, _ := l.peekHead()
		maker := b.mustOrder(id)

		if maker.ClientID == taker.ClientID {
			return fmt.Errorf("%w: client %d resting order %d vs incoming order %d",
				ErrSelfTrade, taker.ClientID, maker.ID, takerID)
		}

		qty := min(maker.Shares, taker.Shares)
		if err := l.fill(maker, taker, takerID, qty, b); err != nil {
			return err
		}
	}
	return nil
}

func (l *Limit) fill(maker *Order, taker *Taker, takerID uint64, qty int64, b *Book) error {
	makerQty := maker.ExecutedQty + qty
	takerQty := taker.ExecutedQty + qty
	makerAvg := vwap(maker.ExecutedQty, maker.AvgPrice, qty, maker.Price)
	takerAvg := vwap(taker.ExecutedQty, taker.AvgPrice, qty, maker.Price)
	makerRemaining := maker.Shares - qty
	takerRemaining := taker.Shares - qty

	exec := &Execution{
		Symbol:           b.Symbol(),
		ID:               b.nextExecutionID(),
		MakerOrderID:     maker.ID,
		TakerOrderID:     takerID,
		Price:            maker.Price,
		Quantity:         qty,
		MakerSide:        maker.Side,
		TakerSide:        taker.Side,
		MakerExecType:    classify(makerRemaining),
		TakerExecType:    classify(takerRemaining),
		MakerClientID:    maker.ClientID,
		TakerClientID:    taker.ClientID,
		MakerExecutedQty: makerQty,
		TakerExecutedQty: takerQty,
		MakerRemaining:   makerRemaining,
		TakerRemaining:   takerRemaining,
		MakerAvgPrice:    makerAvg,
		TakerAvgPrice:    takerAvg,
	}

	if err := b.sink.Append(exec); err != nil {
		return fmt.Errorf("book: execution sink: %w", err)
	}

	maker.ExecutedQty = makerQty
	maker.AvgPrice = makerAvg
	maker.Shares = makerRemaining
	taker.ExecutedQty = takerQty
	taker.AvgPrice = takerAvg
	taker.Shares = takerRemaining
	l.TotalVolume -= qty

	if maker.Shares == 0 {
		l.popHead()
	}
	return nil
}

func classify(remaining int64) ExecType {
	if remaining == 0 {
		return FullFill
	}
	return PartialFill
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
