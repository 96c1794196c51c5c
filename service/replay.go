package service

import (
	"fmt"
	"log/slog"

	"matchbook/domain/book"
	"matchbook/infra/wal"
	"matchbook/infra/wire"
)

// Replay rebuilds book state from the intent journal. It must run
// before the engine accepts traffic. Matching is deterministic, so
// replay regenerates the exact order and execution ids of the first
// run; the outbox absorbs the re-emitted executions idempotently.
//
// Orders that were rejected live (self-trade) fail identically on
// replay and are logged, not fatal.
func Replay(dir string, b *book.Book, log *slog.Logger) (lastSeq uint64, err error) {
	r, err := wal.OpenReader(dir)
	if err != nil {
		return 0, fmt.Errorf("service: open wal reader: %w", err)
	}
	defer r.Close()

	replayed := 0
	for r.Next() {
		rec := r.Record()
		lastSeq = rec.Seq
		if rec.Type != wal.RecordPlace {
			continue
		}

		spec, err := wire.DecodeOrderIntent(rec.Data)
		if err != nil {
			return lastSeq, fmt.Errorf("service: wal record %d: %w", rec.Seq, err)
		}
		if _, err := b.Submit(spec); err != nil {
			log.Warn("replayed order rejected again", "seq", rec.Seq, "err", err)
		}
		replayed++
	}
	if err := r.Err(); err != nil {
		return lastSeq, fmt.Errorf("service: wal replay: %w", err)
	}

	log.Info("wal replay complete", "records", replayed, "last_seq", lastSeq)
	return lastSeq, nil
}
