package wal

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

type RecordType uint8

const (
	RecordPlace RecordType = 1
)

// Record is one journaled intent. Seq is assigned by the WAL on append.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, data []byte) *Record {
	return &Record{
		Type: t,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

const (
	fieldType = 1
	fieldSeq  = 2
	fieldTime = 3
	fieldData = 4
)

func marshalRecord(r *Record) []byte {
	buf := make([]byte, 0, 24+len(r.Data))
	buf = protowire.AppendTag(buf, fieldType, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(r.Type))
	buf = protowire.AppendTag(buf, fieldSeq, protowire.VarintType)
	buf = protowire.AppendVarint(buf, r.Seq)
	buf = protowire.AppendTag(buf, fieldTime, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(r.Time))
	buf = protowire.AppendTag(buf, fieldData, protowire.BytesType)
	buf = protowire.AppendBytes(buf, r.Data)
	return buf
}

func unmarshalRecord(data []byte) (*Record, error) {
	r := &Record{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wal: bad record tag: %v", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("wal: bad record payload")
			}
			r.Data = append([]byte(nil), v...)
			data = data[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wal: bad record field %d", num)
			}
			data = data[n:]
			switch num {
			case fieldType:
				r.Type = RecordType(v)
			case fieldSeq:
				r.Seq = v
			case fieldTime:
				r.Time = int64(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("wal: bad record field %d", num)
			}
			data = data[n:]
		}
	}
	return r, nil
}
