package grpcserver

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The API speaks protobuf wire format with hand-maintained messages,
// mirroring infra/wire. Every message implements Message for the codec.

type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire(data []byte) error
}

type PlaceOrderRequest struct {
	Symbol   string
	ClientID uint64
	Side     uint64 // 0 buy, 1 sell
	Price    int64
	Shares   int64
}

type PlaceOrderResponse struct {
	OrderID     uint64
	ExecutedQty int64
	Remaining   int64
	AvgPrice    string
	Rested      bool
}

type GetOrderRequest struct {
	OrderID uint64
}

type GetOrderResponse struct {
	OrderID     uint64
	ClientID    uint64
	Side        uint64
	Price       int64
	Remaining   int64
	ExecutedQty int64
	AvgPrice    string
	Symbol      string
}

type DepthRequest struct {
	Side      uint64
	MaxLevels int64
}

type DepthLevel struct {
	Price  int64
	Orders int64
	Volume int64
}

type DepthResponse struct {
	Levels []DepthLevel
}

// ---- wire helpers ----

type field struct {
	num protowire.Number
	typ protowire.Type
	u64 uint64
	str string
}

func appendFields(buf []byte, fields []field) []byte {
	for _, f := range fields {
		buf = protowire.AppendTag(buf, f.num, f.typ)
		if f.typ == protowire.BytesType {
			buf = protowire.AppendString(buf, f.str)
		} else {
			buf = protowire.AppendVarint(buf, f.u64)
		}
	}
	return buf
}

// walkFields dispatches each field to fn; unknown fields are skipped.
func walkFields(data []byte, fn func(num protowire.Number, u64 uint64, str []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("grpcserver: bad tag: %v", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("grpcserver: bad varint field %d", num)
			}
			data = data[n:]
			if err := fn(num, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("grpcserver: bad bytes field %d", num)
			}
			data = data[n:]
			if err := fn(num, 0, v); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("grpcserver: bad field %d", num)
			}
			data = data[n:]
		}
	}
	return nil
}

// ---- PlaceOrderRequest ----

func (m *PlaceOrderRequest) MarshalWire() ([]byte, error) {
	return appendFields(nil, []field{
		{1, protowire.BytesType, 0, m.Symbol},
		{2, protowire.VarintType, m.ClientID, ""},
		{3, protowire.VarintType, m.Side, ""},
		{4, protowire.VarintType, uint64(m.Price), ""},
		{5, protowire.VarintType, uint64(m.Shares), ""},
	}), nil
}

func (m *PlaceOrderRequest) UnmarshalWire(data []byte) error {
	return walkFields(data, func(num protowire.Number, u64 uint64, str []byte) error {
		switch num {
		case 1:
			m.Symbol = string(str)
		case 2:
			m.ClientID = u64
		case 3:
			m.Side = u64
		case 4:
			m.Price = int64(u64)
		case 5:
			m.Shares = int64(u64)
		}
		return nil
	})
}

// ---- PlaceOrderResponse ----

func (m *PlaceOrderResponse) MarshalWire() ([]byte, error) {
	rested := uint64(0)
	if m.Rested {
		rested = 1
	}
	return appendFields(nil, []field{
		{1, protowire.VarintType, m.OrderID, ""},
		{2, protowire.VarintType, uint64(m.ExecutedQty), ""},
		{3, protowire.VarintType, uint64(m.Remaining), ""},
		{4, protowire.BytesType, 0, m.AvgPrice},
		{5, protowire.VarintType, rested, ""},
	}), nil
}

func (m *PlaceOrderResponse) UnmarshalWire(data []byte) error {
	return walkFields(data, func(num protowire.Number, u64 uint64, str []byte) error {
		switch num {
		case 1:
			m.OrderID = u64
		case 2:
			m.ExecutedQty = int64(u64)
		case 3:
			m.Remaining = int64(u64)
		case 4:
			m.AvgPrice = string(str)
		case 5:
			m.Rested = u64 != 0
		}
		return nil
	})
}

// ---- GetOrderRequest ----

func (m *GetOrderRequest) MarshalWire() ([]byte, error) {
	return appendFields(nil, []field{
		{1, protowire.VarintType, m.OrderID, ""},
	}), nil
}

func (m *GetOrderRequest) UnmarshalWire(data []byte) error {
	return walkFields(data, func(num protowire.Number, u64 uint64, _ []byte) error {
		if num == 1 {
			m.OrderID = u64
		}
		return nil
	})
}

// ---- GetOrderResponse ----

func (m *GetOrderResponse) MarshalWire() ([]byte, error) {
	return appendFields(nil, []field{
		{1, protowire.VarintType, m.OrderID, ""},
		{2, protowire.VarintType, m.ClientID, ""},
		{3, protowire.VarintType, m.Side, ""},
		{4, protowire.VarintType, uint64(m.Price), ""},
		{5, protowire.VarintType, uint64(m.Remaining), ""},
		{6, protowire.VarintType, uint64(m.ExecutedQty), ""},
		{7, protowire.BytesType, 0, m.AvgPrice},
		{8, protowire.BytesType, 0, m.Symbol},
	}), nil
}

func (m *GetOrderResponse) UnmarshalWire(data []byte) error {
	return walkFields(data, func(num protowire.Number, u64 uint64, str []byte) error {
		switch num {
		case 1:
			m.OrderID = u64
		case 2:
			m.ClientID = u64
		case 3:
			m.Side = u64
		case 4:
			m.Price = int64(u64)
		case 5:
			m.Remaining = int64(u64)
		case 6:
			m.ExecutedQty = int64(u64)
		case 7:
			m.AvgPrice = string(str)
		case 8:
			m.Symbol = string(str)
		}
		return nil
	})
}

// ---- DepthRequest ----

func (m *DepthRequest) MarshalWire() ([]byte, error) {
	return appendFields(nil, []field{
		{1, protowire.VarintType, m.Side, ""},
		{2, protowire.VarintType, uint64(m.MaxLevels), ""},
	}), nil
}

func (m *DepthRequest) UnmarshalWire(data []byte) error {
	return walkFields(data, func(num protowire.Number, u64 uint64, _ []byte) error {
		switch num {
		case 1:
			m.Side = u64
		case 2:
			m.MaxLevels = int64(u64)
		}
		return nil
	})
}

// ---- DepthResponse ----

func (m *DepthResponse) MarshalWire() ([]byte, error) {
	var buf []byte
	for _, lvl := range m.Levels {
		inner := appendFields(nil, []field{
			{1, protowire.VarintType, uint64(lvl.Price), ""},
			{2, protowire.VarintType, uint64(lvl.Orders), ""},
			{3, protowire.VarintType, uint64(lvl.Volume), ""},
		})
		buf = protowire.AppendTag(buf, 1, protowire.BytesType)
		buf = protowire.AppendBytes(buf, inner)
	}
	return buf, nil
}

func (m *DepthResponse) UnmarshalWire(data []byte) error {
	return walkFields(data, func(num protowire.Number, _ uint64, str []byte) error {
		if num != 1 || str == nil {
			return nil
		}
		var lvl DepthLevel
		err := walkFields(str, func(num protowire.Number, u64 uint64, _ []byte) error {
			switch num {
			case 1:
				lvl.Price = int64(u64)
			case 2:
				lvl.Orders = int64(u64)
			case 3:
				lvl.Volume = int64(u64)
			}
			return nil
		})
		if err != nil {
			return err
		}
		m.Levels = append(m.Levels, lvl)
		return nil
	})
}
