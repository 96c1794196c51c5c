// Package reporter drains the execution outbox and notifies the world:
// one report per counterparty (each keyed by that party's own order id
// and post-trade accounting) over the reports topic, plus one anonymous
// tick on the trade tape. Records move NEW → SENT → ACKED; anything
// that fails to publish returns to NEW and is retried next tick, so the
// ledger is never silently dropped.
package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"matchbook/domain/book"
	kafkax "matchbook/infra/kafka"
	"matchbook/infra/outbox"
	"matchbook/infra/wire"
)

// Report is one counterparty's view of one execution.
type Report struct {
	Symbol    string `json:"symbol"`
	ExecID    uint64 `json:"exec_id"`
	OrderID   uint64 `json:"order_id"`
	ClientID  uint64 `json:"client_id"`
	Side      string `json:"side"`
	Liquidity string `json:"liquidity"` // maker or taker
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	ExecType  string `json:"exec_type"`
	CumQty    int64  `json:"cum_qty"`
	Remaining int64  `json:"remaining"`
	AvgPrice  string `json:"avg_price"`
}

// Tick is the anonymous tape entry for one execution.
type Tick struct {
	Symbol   string `json:"symbol"`
	ExecID   uint64 `json:"exec_id"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	At       int64  `json:"at"`
}

type Config struct {
	Brokers      []string
	ReportsTopic string
	TapeTopic    string
	Interval     time.Duration
}

type Reporter struct {
	log      *slog.Logger
	ob       *outbox.Outbox
	producer sarama.SyncProducer
	tape     *kafkax.Producer
	cfg      Config
}

func New(log *slog.Logger, ob *outbox.Outbox, cfg Config) (*Reporter, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("reporter: sarama producer: %w", err)
	}

	return &Reporter{
		log:      log,
		ob:       ob,
		producer: producer,
		tape:     kafkax.NewProducer(cfg.Brokers, cfg.TapeTopic),
		cfg:      cfg,
	}, nil
}

// Run drains on a ticker until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	r.log.Info("reporter started", "interval", r.cfg.Interval)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *Reporter) drainOnce(ctx context.Context) {
	err := r.ob.ScanState(outbox.StateNew, func(rec outbox.Record) error {
		exec, err := wire.DecodeExecution(rec.Payload)
		if err != nil {
			// Poison row: park it, keep draining.
			r.log.Error("undecodable outbox record", "exec", rec.ExecID, "err", err)
			return r.ob.UpdateState(rec.ExecID, outbox.StateFailed, rec.Retries)
		}

		if err := r.ob.UpdateState(rec.ExecID, outbox.StateSent, rec.Retries); err != nil {
			return err
		}

		if err := r.publish(ctx, exec); err != nil {
			r.log.Warn("publish failed, will retry", "exec", exec.ID, "retries", rec.Retries+1, "err", err)
			return r.ob.UpdateState(rec.ExecID, outbox.StateNew, rec.Retries+1)
		}

		return r.ob.UpdateState(rec.ExecID, outbox.StateAcked, rec.Retries)
	})
	if err != nil {
		r.log.Error("outbox drain failed", "err", err)
	}
}

func (r *Reporter) publish(ctx context.Context, e *book.Execution) error {
	maker := Report{
		Symbol:    e.Symbol,
		ExecID:    e.ID,
		OrderID:   e.MakerOrderID,
		ClientID:  e.MakerClientID,
		Side:      e.MakerSide.String(),
		Liquidity: "maker",
		Price:     e.Price,
		Quantity:  e.Quantity,
		ExecType:  e.MakerExecType.String(),
		CumQty:    e.MakerExecutedQty,
		Remaining: e.MakerRemaining,
		AvgPrice:  e.MakerAvgPrice.String(),
	}
	taker := Report{
		Symbol:    e.Symbol,
		ExecID:    e.ID,
		OrderID:   e.TakerOrderID,
		ClientID:  e.TakerClientID,
		Side:      e.TakerSide.String(),
		Liquidity: "taker",
		Price:     e.Price,
		Quantity:  e.Quantity,
		ExecType:  e.TakerExecType.String(),
		CumQty:    e.TakerExecutedQty,
		Remaining: e.TakerRemaining,
		AvgPrice:  e.TakerAvgPrice.String(),
	}

	for _, rep := range []Report{maker, taker} {
		payload, err := json.Marshal(rep)
		if err != nil {
			return err
		}
		msg := &sarama.ProducerMessage{
			Topic: r.cfg.ReportsTopic,
			Key:   sarama.StringEncoder(fmt.Sprintf("%d", rep.ClientID)),
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := r.producer.SendMessage(msg); err != nil {
			return err
		}
	}

	tick, err := json.Marshal(Tick{
		Symbol:   e.Symbol,
		ExecID:   e.ID,
		Price:    e.Price,
		Quantity: e.Quantity,
		At:       time.Now().UnixNano(),
	})
	if err != nil {
		return err
	}
	return r.tape.Publish(ctx, []byte(e.Symbol), tick)
}

func (r *Reporter) Close() error {
	if err := r.tape.Close(); err != nil {
		r.log.Warn("tape close", "err", err)
	}
	return r.producer.Close()
}
