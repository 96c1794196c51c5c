package wal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}

	const n = 100
	for i := 0; i < n; i++ {
		rec := NewRecord(RecordPlace, []byte(fmt.Sprintf("intent-%d", i)))
		if err := w.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
		if rec.Seq != uint64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, rec.Seq)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(dir)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	count := 0
	var lastSeq uint64
	for r.Next() {
		rec := r.Record()
		if rec.Type != RecordPlace {
			t.Fatalf("unexpected record type %v", rec.Type)
		}
		if rec.Seq <= lastSeq {
			t.Fatalf("sequence must increase: %d after %d", rec.Seq, lastSeq)
		}
		lastSeq = rec.Seq
		count++
	}
	if r.Err() != nil {
		t.Fatalf("reader error: %v", r.Err())
	}
	if count != n {
		t.Fatalf("expected %d records, got %d", n, count)
	}
}

func TestRotationKeepsAllRecords(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	const n = 20
	for i := 0; i < n; i++ {
		if err := w.Append(NewRecord(RecordPlace, []byte("payload-payload-payload"))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	segs, _ := filepath.Glob(filepath.Join(dir, "[0-9]*.wal"))
	if len(segs) == 0 {
		t.Fatal("expected rotated segments")
	}

	r, err := OpenReader(dir)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()
	count := 0
	for r.Next() {
		count++
	}
	if r.Err() != nil {
		t.Fatalf("reader error: %v", r.Err())
	}
	if count != n {
		t.Fatalf("expected %d records across segments, got %d", n, count)
	}
}

func TestResumeContinuesSequence(t *testing.T) {
	dir := t.TempDir()

	w, _ := Open(Config{Dir: dir})
	for i := 0; i < 5; i++ {
		_ = w.Append(NewRecord(RecordPlace, []byte("x")))
	}
	_ = w.Close()

	w2, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	w2.Resume(5)
	rec := NewRecord(RecordPlace, []byte("y"))
	if err := w2.Append(rec); err != nil {
		t.Fatalf("append after resume: %v", err)
	}
	if rec.Seq != 6 {
		t.Fatalf("expected seq 6 after resume, got %d", rec.Seq)
	}
	_ = w2.Close()
}

func TestCRCCorruptionDetected(t *testing.T) {
	dir := t.TempDir()

	w, _ := Open(Config{Dir: dir})
	_ = w.Append(NewRecord(RecordPlace, []byte("valid-record")))
	_ = w.Close()

	path := filepath.Join(dir, "current.wal")
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	// clobber bytes inside the record body
	if _, err := f.WriteAt([]byte{0xFF, 0xFF, 0xFF}, 10); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := OpenReader(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Next() {
		t.Fatal("expected corruption to stop the reader")
	}
	if !errors.Is(r.Err(), ErrCRCMismatch) {
		t.Fatalf("expected ErrCRCMismatch, got %v", r.Err())
	}
}
