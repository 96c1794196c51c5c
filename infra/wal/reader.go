package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
)

var ErrCRCMismatch = errors.New("wal: crc mismatch")

// Reader streams records back in write order: rotated segments first,
// then current.wal. A clean end of journal leaves Err() == nil.
type Reader struct {
	paths  []string
	file   *os.File
	reader *bufio.Reader
	rec    *Record
	err    error
}

func OpenReader(dir string) (*Reader, error) {
	segs, err := filepath.Glob(filepath.Join(dir, "[0-9]*.wal"))
	if err != nil {
		return nil, err
	}
	sort.Strings(segs)

	current := filepath.Join(dir, currentName)
	if _, err := os.Stat(current); err == nil {
		segs = append(segs, current)
	}
	return &Reader{paths: segs}, nil
}

func (r *Reader) Next() bool {
	for {
		if r.reader == nil {
			if !r.advance() {
				return false
			}
		}
		ok, eof := r.readOne()
		if ok {
			return true
		}
		if !eof {
			return false
		}
		// segment exhausted, move on
		r.file.Close()
		r.reader = nil
	}
}

func (r *Reader) advance() bool {
	if len(r.paths) == 0 {
		return false
	}
	f, err := os.Open(r.paths[0])
	if err != nil {
		r.err = err
		return false
	}
	r.paths = r.paths[1:]
	r.file = f
	r.reader = bufio.NewReaderSize(f, 1<<20)
	return true
}

func (r *Reader) readOne() (ok, eof bool) {
	var header [8]byte
	if _, err := io.ReadFull(r.reader, header[:]); err != nil {
		if err == io.EOF {
			return false, true
		}
		r.err = err
		return false, false
	}
	length := binary.LittleEndian.Uint32(header[:4])
	wantCRC := binary.LittleEndian.Uint32(header[4:])

	body := make([]byte, length)
	if _, err := io.ReadFull(r.reader, body); err != nil {
		r.err = err
		return false, false
	}
	if crc32.ChecksumIEEE(body) != wantCRC {
		r.err = ErrCRCMismatch
		return false, false
	}

	rec, err := unmarshalRecord(body)
	if err != nil {
		r.err = err
		return false, false
	}
	r.rec = rec
	return true, false
}

func (r *Reader) Record() *Record { return r.rec }
func (r *Reader) Err() error      { return r.err }

func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
