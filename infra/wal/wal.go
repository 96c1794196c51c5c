// Package wal journals every accepted order intent before it is
// matched. Records are CRC-framed; full segments rotate out of
// current.wal so replay can stream them back in write order.
package wal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"
)

const (
	currentName        = "current.wal"
	defaultSegmentSize = 2 * 1024 * 1024
	defaultSegmentAge  = 5 * time.Minute
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

type WAL struct {
	cfg        Config
	file       *os.File
	writer     *bufio.Writer
	seq        uint64
	segIndex   int
	written    int64
	lastRotate time.Time
}

func Open(cfg Config) (*WAL, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./wal"
	}
	if cfg.SegmentSize == 0 {
		cfg.SegmentSize = defaultSegmentSize
	}
	if cfg.SegmentDuration == 0 {
		cfg.SegmentDuration = defaultSegmentAge
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	segIndex, err := lastSegmentIndex(cfg.Dir)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Join(cfg.Dir, currentName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &WAL{
		cfg:        cfg,
		file:       f,
		writer:     bufio.NewWriterSize(f, 1<<20),
		segIndex:   segIndex,
		written:    info.Size(),
		lastRotate: time.Now(),
	}, nil
}

// Resume continues sequence numbering after replay.
func (w *WAL) Resume(lastSeq uint64) {
	w.seq = lastSeq
}

// Append assigns the next sequence number and writes one framed record:
// [len:4][crc:4][body]. The caller decides when to Sync.
func (w *WAL) Append(rec *Record) error {
	if w.shouldRotate() {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	rec.Seq = w.seq + 1
	body := marshalRecord(rec)

	var header [8]byte
	binary.LittleEndian.PutUint32(header[:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(header[4:], crc32.ChecksumIEEE(body))

	if _, err := w.writer.Write(header[:]); err != nil {
		return err
	}
	n, err := w.writer.Write(body)
	if err != nil {
		return err
	}
	w.seq++
	w.written += int64(n) + 8
	return nil
}

func (w *WAL) shouldRotate() bool {
	if w.written == 0 {
		return false
	}
	return w.written >= w.cfg.SegmentSize || time.Since(w.lastRotate) >= w.cfg.SegmentDuration
}

func (w *WAL) rotate() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}

	w.segIndex++
	oldPath := filepath.Join(w.cfg.Dir, currentName)
	newPath := filepath.Join(w.cfg.Dir, segmentName(w.segIndex))
	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	f, err := os.OpenFile(oldPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.writer = bufio.NewWriterSize(f, 1<<20)
	w.written = 0
	w.lastRotate = time.Now()
	return nil
}

func (w *WAL) Sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

func (w *WAL) Close() error {
	if err := w.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}

func segmentName(i int) string {
	return fmt.Sprintf("%06d.wal", i)
}

func lastSegmentIndex(dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.wal"))
	if err != nil {
		return 0, err
	}
	last := 0
	for _, p := range paths {
		var i int
		if _, err := fmt.Sscanf(filepath.Base(p), "%06d.wal", &i); err == nil && i > last {
			last = i
		}
	}
	return last, nil
}
