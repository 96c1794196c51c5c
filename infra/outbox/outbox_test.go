package outbox

import (
	"errors"
	"testing"

	"github.com/cockroachdb/pebble"
)

func openTest(t *testing.T) *Outbox {
	t.Helper()
	ob, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { ob.Close() })
	return ob
}

func TestPutAndGet(t *testing.T) {
	ob := openTest(t)

	if err := ob.Put(1, []byte("exec-1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	rec, err := ob.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != StateNew || string(rec.Payload) != "exec-1" || rec.Retries != 0 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestPutIsFirstWriteWins(t *testing.T) {
	ob := openTest(t)

	_ = ob.Put(1, []byte("original"))
	if err := ob.UpdateState(1, StateAcked, 0); err != nil {
		t.Fatalf("update: %v", err)
	}

	// a replayed execution must not resurrect the record
	if err := ob.Put(1, []byte("replayed")); err != nil {
		t.Fatalf("replayed put: %v", err)
	}
	rec, _ := ob.Get(1)
	if rec.State != StateAcked || string(rec.Payload) != "original" {
		t.Fatalf("replay overwrote the record: %+v", rec)
	}
}

func TestScanStateVisitsInIDOrder(t *testing.T) {
	ob := openTest(t)

	for _, id := range []uint64{3, 1, 2} {
		_ = ob.Put(id, []byte("x"))
	}
	_ = ob.UpdateState(2, StateAcked, 0)

	var seen []uint64
	err := ob.ScanState(StateNew, func(rec Record) error {
		seen = append(seen, rec.ExecID)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("expected [1 3], got %v", seen)
	}
}

func TestStateTransitions(t *testing.T) {
	ob := openTest(t)
	_ = ob.Put(7, []byte("x"))

	if err := ob.UpdateState(7, StateSent, 1); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	rec, _ := ob.Get(7)
	if rec.State != StateSent || rec.Retries != 1 || rec.LastAttempt == 0 {
		t.Fatalf("unexpected record after sent: %+v", rec)
	}
	if string(rec.Payload) != "x" {
		t.Fatal("payload must survive state changes")
	}

	if err := ob.UpdateState(7, StateAcked, 1); err != nil {
		t.Fatalf("mark acked: %v", err)
	}
	if rec, _ = ob.Get(7); rec.State != StateAcked {
		t.Fatalf("expected ACKED, got %v", rec.State)
	}

	if err := ob.Delete(7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ob.Get(7); !errors.Is(err, pebble.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
