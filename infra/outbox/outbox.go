// Package outbox is the durable execution sink backing store. Every
// execution is written here with pebble.Sync before the engine touches
// the next order, then walks NEW → SENT → ACKED as the reporter ships
// it. Put is first-write-wins keyed by execution id, which makes WAL
// replay (re-emitting identical executions) a no-op.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Record is one outbox row: delivery state plus the wire-encoded
// execution payload.
type Record struct {
	ExecID      uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// row encoding: [state:1][retries:4][lastAttempt:8][payload...]
func encodeRow(r Record) []byte {
	buf := make([]byte, 13+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[13:], r.Payload)
	return buf
}

func decodeRow(execID uint64, b []byte) (Record, error) {
	if len(b) < 13 {
		return Record{}, errors.New("outbox: short row")
	}
	return Record{
		ExecID:      execID,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[13:]...),
	}, nil
}

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Put stores a new execution in state NEW. An id already present is
// left untouched so a replayed execution cannot be reported twice.
func (o *Outbox) Put(execID uint64, payload []byte) error {
	key := keyFor(execID)
	_, closer, err := o.db.Get(key)
	if err == nil {
		closer.Close()
		return nil
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return err
	}
	row := Record{State: StateNew, Payload: payload}
	return o.db.Set(key, encodeRow(row), pebble.Sync)
}

// UpdateState moves a record along the delivery machine, keeping its
// payload.
func (o *Outbox) UpdateState(execID uint64, state State, retries uint32) error {
	rec, err := o.Get(execID)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(execID), encodeRow(rec), pebble.Sync)
}

func (o *Outbox) Get(execID uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(execID))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRow(execID, val)
}

// Delete removes an ACKED record during cleanup.
func (o *Outbox) Delete(execID uint64) error {
	return o.db.Delete(keyFor(execID), pebble.Sync)
}

// ScanState visits every record in the given state in execution-id
// order.
func (o *Outbox) ScanState(state State, fn func(Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRow(id, iter.Value())
		if err != nil {
			return err
		}
		if rec.State != state {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

const keyPrefix = "exec/"

func keyFor(execID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, execID))
}

func parseKey(key []byte) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(string(key[len(keyPrefix):]), "%d", &id)
	return id, err
}
