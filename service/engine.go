// Package service is the only write entry point into the book. One
// Engine owns one instrument: a dedicated goroutine drains the command
// channel, so every journal append, matching pass and outbox write for
// that book happens in a single total order.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"matchbook/domain/book"
	"matchbook/infra/outbox"
	"matchbook/infra/wal"
	"matchbook/infra/wire"
)

var ErrStopped = errors.New("service: engine stopped")

// durableSink writes each execution to the outbox before the match is
// allowed to commit. Put is keyed by execution id and first-write-wins,
// so replayed matching passes cannot duplicate reports.
type durableSink struct {
	ob *outbox.Outbox
}

func (s durableSink) Append(e *book.Execution) error {
	return s.ob.Put(e.ID, wire.EncodeExecution(e))
}

type Engine struct {
	log  *slog.Logger
	book *book.Book
	wal  *wal.WAL

	cmds chan command
	done chan struct{}
	wg   sync.WaitGroup
}

type command interface{ execute(*Engine) }

// NewEngine wires the book to its journal. The book's sink must already
// point at the outbox; NewSink builds one.
func NewEngine(log *slog.Logger, b *book.Book, w *wal.WAL) *Engine {
	return &Engine{
		log:  log,
		book: b,
		wal:  w,
		cmds: make(chan command, 1024),
		done: make(chan struct{}),
	}
}

// NewSink returns the outbox-backed execution sink for a book.
func NewSink(ob *outbox.Outbox) book.ExecutionSink {
	return durableSink{ob: ob}
}

func (e *Engine) Start() {
	e.wg.Add(1)
	go e.run()
}

func (e *Engine) Stop() {
	close(e.done)
	e.wg.Wait()
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case cmd := <-e.cmds:
			cmd.execute(e)
		}
	}
}

func (e *Engine) submit(ctx context.Context, cmd command) error {
	select {
	case e.cmds <- cmd:
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---- place ----

type placeResult struct {
	res book.SubmitResult
	err error
}

type placeCmd struct {
	spec book.OrderSpec
	resp chan placeResult
}

func (c *placeCmd) execute(e *Engine) {
	// Journal the intent first; an order we cannot journal is an order
	// we cannot replay, so it is rejected outright.
	rec := wal.NewRecord(wal.RecordPlace, wire.EncodeOrderIntent(c.spec))
	if err := e.wal.Append(rec); err != nil {
		c.resp <- placeResult{err: err}
		return
	}
	if err := e.wal.Sync(); err != nil {
		c.resp <- placeResult{err: err}
		return
	}

	res, err := e.book.Submit(c.spec)
	if err != nil {
		e.log.Warn("order rejected",
			"client", c.spec.ClientID,
			"side", c.spec.Side.String(),
			"price", c.spec.Price,
			"shares", c.spec.Shares,
			"err", err,
		)
	} else {
		e.log.Info("order processed",
			"order", res.OrderID,
			"client", c.spec.ClientID,
			"side", c.spec.Side.String(),
			"price", c.spec.Price,
			"executed", res.ExecutedQty,
			"remaining", res.Remaining,
			"rested", res.Rested,
		)
	}
	c.resp <- placeResult{res: res, err: err}
}

// Place submits one order and waits for the pass to finish.
func (e *Engine) Place(ctx context.Context, spec book.OrderSpec) (book.SubmitResult, error) {
	cmd := &placeCmd{spec: spec, resp: make(chan placeResult, 1)}
	if err := e.submit(ctx, cmd); err != nil {
		return book.SubmitResult{}, err
	}
	select {
	case r := <-cmd.resp:
		return r.res, r.err
	case <-ctx.Done():
		return book.SubmitResult{}, ctx.Err()
	}
}

// ---- queries (run on the engine goroutine for a consistent view) ----

type depthCmd struct {
	side book.Side
	max  int
	resp chan []book.Level
}

func (c *depthCmd) execute(e *Engine) {
	c.resp <- e.book.Depth(c.side, c.max)
}

func (e *Engine) Depth(ctx context.Context, side book.Side, max int) ([]book.Level, error) {
	cmd := &depthCmd{side: side, max: max, resp: make(chan []book.Level, 1)}
	if err := e.submit(ctx, cmd); err != nil {
		return nil, err
	}
	select {
	case levels := <-cmd.resp:
		return levels, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type orderResult struct {
	order book.Order
	err   error
}

type orderCmd struct {
	id   uint64
	resp chan orderResult
}

func (c *orderCmd) execute(e *Engine) {
	o, err := e.book.Order(c.id)
	if err != nil {
		c.resp <- orderResult{err: err}
		return
	}
	c.resp <- orderResult{order: *o} // copy, callers never alias registry state
}

func (e *Engine) Order(ctx context.Context, id uint64) (book.Order, error) {
	cmd := &orderCmd{id: id, resp: make(chan orderResult, 1)}
	if err := e.submit(ctx, cmd); err != nil {
		return book.Order{}, err
	}
	select {
	case r := <-cmd.resp:
		return r.order, r.err
	case <-ctx.Done():
		return book.Order{}, ctx.Err()
	}
}

func (e *Engine) Symbol() string {
	return e.book.Symbol()
}
