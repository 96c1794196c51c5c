// Package wire is the protobuf wire-format codec for everything the
// engine persists or ships: order intents in the intent journal, and
// execution records in the outbox. Messages are hand-maintained with
// encoding/protowire, which keeps the frames readable by any protobuf
// tooling without a codegen step.
package wire

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protowire"

	"matchbook/domain/book"
)

var ErrMalformed = errors.New("wire: malformed message")

// Order intent field numbers.
const (
	intentSymbol   = 1
	intentClientID = 2
	intentSide     = 3
	intentPrice    = 4
	intentShares   = 5
)

// EncodeOrderIntent serializes the admission request exactly as it was
// accepted; replaying the bytes through the book reproduces the pass.
func EncodeOrderIntent(spec book.OrderSpec) []byte {
	buf := make([]byte, 0, 32+len(spec.Symbol))
	buf = protowire.AppendTag(buf, intentSymbol, protowire.BytesType)
	buf = protowire.AppendString(buf, spec.Symbol)
	buf = protowire.AppendTag(buf, intentClientID, protowire.VarintType)
	buf = protowire.AppendVarint(buf, spec.ClientID)
	buf = protowire.AppendTag(buf, intentSide, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(spec.Side))
	buf = protowire.AppendTag(buf, intentPrice, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(spec.Price))
	buf = protowire.AppendTag(buf, intentShares, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(spec.Shares))
	return buf
}

func DecodeOrderIntent(data []byte) (book.OrderSpec, error) {
	var spec book.OrderSpec
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return spec, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == intentSymbol && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return spec, fmt.Errorf("%w: symbol", ErrMalformed)
			}
			spec.Symbol = v
			data = data[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return spec, fmt.Errorf("%w: field %d", ErrMalformed, num)
			}
			data = data[n:]
			switch num {
			case intentClientID:
				spec.ClientID = v
			case intentSide:
				spec.Side = book.Side(v)
			case intentPrice:
				spec.Price = int64(v)
			case intentShares:
				spec.Shares = int64(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return spec, fmt.Errorf("%w: field %d", ErrMalformed, num)
			}
			data = data[n:]
		}
	}
	return spec, nil
}

// Execution field numbers.
const (
	execSymbol       = 1
	execID           = 2
	execMakerOrderID = 3
	execTakerOrderID = 4
	execPrice        = 5
	execQuantity     = 6
	execMakerSide    = 7
	execTakerSide    = 8
	execMakerType    = 9
	execTakerType    = 10
	execMakerClient  = 11
	execTakerClient  = 12
	execMakerCumQty  = 13
	execTakerCumQty  = 14
	execMakerRemain  = 15
	execTakerRemain  = 16
	execMakerAvg     = 17
	execTakerAvg     = 18
)

// EncodeExecution serializes a trade record for the outbox. Average
// prices travel as decimal strings so no precision is lost on the wire.
func EncodeExecution(e *book.Execution) []byte {
	buf := make([]byte, 0, 96+len(e.Symbol))
	buf = protowire.AppendTag(buf, execSymbol, protowire.BytesType)
	buf = protowire.AppendString(buf, e.Symbol)

	varints := []struct {
		num protowire.Number
		val uint64
	}{
		{execID, e.ID},
		{execMakerOrderID, e.MakerOrderID},
		{execTakerOrderID, e.TakerOrderID},
		{execPrice, uint64(e.Price)},
		{execQuantity, uint64(e.Quantity)},
		{execMakerSide, uint64(e.MakerSide)},
		{execTakerSide, uint64(e.TakerSide)},
		{execMakerType, uint64(e.MakerExecType)},
		{execTakerType, uint64(e.TakerExecType)},
		{execMakerClient, e.MakerClientID},
		{execTakerClient, e.TakerClientID},
		{execMakerCumQty, uint64(e.MakerExecutedQty)},
		{execTakerCumQty, uint64(e.TakerExecutedQty)},
		{execMakerRemain, uint64(e.MakerRemaining)},
		{execTakerRemain, uint64(e.TakerRemaining)},
	}
	for _, f := range varints {
		buf = protowire.AppendTag(buf, f.num, protowire.VarintType)
		buf = protowire.AppendVarint(buf, f.val)
	}

	buf = protowire.AppendTag(buf, execMakerAvg, protowire.BytesType)
	buf = protowire.AppendString(buf, e.MakerAvgPrice.String())
	buf = protowire.AppendTag(buf, execTakerAvg, protowire.BytesType)
	buf = protowire.AppendString(buf, e.TakerAvgPrice.String())
	return buf
}

func DecodeExecution(data []byte) (*book.Execution, error) {
	e := &book.Execution{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d", ErrMalformed, num)
			}
			data = data[n:]
			switch num {
			case execSymbol:
				e.Symbol = v
			case execMakerAvg, execTakerAvg:
				d, err := decimal.NewFromString(v)
				if err != nil {
					return nil, fmt.Errorf("%w: avg price %q", ErrMalformed, v)
				}
				if num == execMakerAvg {
					e.MakerAvgPrice = d
				} else {
					e.TakerAvgPrice = d
				}
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d", ErrMalformed, num)
			}
			data = data[n:]
			switch num {
			case execID:
				e.ID = v
			case execMakerOrderID:
				e.MakerOrderID = v
			case execTakerOrderID:
				e.TakerOrderID = v
			case execPrice:
				e.Price = int64(v)
			case execQuantity:
				e.Quantity = int64(v)
			case execMakerSide:
				e.MakerSide = book.Side(v)
			case execTakerSide:
				e.TakerSide = book.Side(v)
			case execMakerType:
				e.MakerExecType = book.ExecType(v)
			case execTakerType:
				e.TakerExecType = book.ExecType(v)
			case execMakerClient:
				e.MakerClientID = v
			case execTakerClient:
				e.TakerClientID = v
			case execMakerCumQty:
				e.MakerExecutedQty = int64(v)
			case execTakerCumQty:
				e.TakerExecutedQty = int64(v)
			case execMakerRemain:
				e.MakerRemaining = int64(v)
			case execTakerRemain:
				e.TakerRemaining = int64(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d", ErrMalformed, num)
			}
			data = data[n:]
		}
	}
	return e, nil
}
