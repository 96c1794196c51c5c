package grpcserver

import (
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"matchbook/domain/book"
	"matchbook/service"
)

func TestPlaceOrderRequestRoundTrip(t *testing.T) {
	in := &PlaceOrderRequest{Symbol: "ACME", ClientID: 7, Side: 1, Price: 101, Shares: 250}

	data, err := in.MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out PlaceOrderRequest
	if err := out.UnmarshalWire(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != *in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, *in)
	}
}

func TestDepthResponseRoundTrip(t *testing.T) {
	in := &DepthResponse{Levels: []DepthLevel{
		{Price: 101, Orders: 2, Volume: 500},
		{Price: 100, Orders: 1, Volume: 40},
	}}

	data, err := in.MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out DepthResponse
	if err := out.UnmarshalWire(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %+v", out.Levels)
	}
	for i := range in.Levels {
		if out.Levels[i] != in.Levels[i] {
			t.Fatalf("level %d mismatch: %+v != %+v", i, out.Levels[i], in.Levels[i])
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	c := Codec{}
	in := &GetOrderResponse{OrderID: 9, Price: 100, AvgPrice: "100.5", Symbol: "ACME"}

	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("codec marshal: %v", err)
	}
	var out GetOrderResponse
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("codec unmarshal: %v", err)
	}
	if out != *in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, *in)
	}

	if _, err := c.Marshal(struct{}{}); err == nil {
		t.Fatal("codec must reject non-wire messages")
	}
}

func TestToStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("wrap: %w", book.ErrSelfTrade), codes.FailedPrecondition},
		{book.ErrInvalidQuantity, codes.InvalidArgument},
		{book.ErrInvalidPrice, codes.InvalidArgument},
		{book.ErrSymbolMismatch, codes.InvalidArgument},
		{book.ErrUnknownOrder, codes.NotFound},
		{service.ErrStopped, codes.Unavailable},
		{fmt.Errorf("disk on fire"), codes.Internal},
	}
	for _, tc := range cases {
		if got := status.Code(toStatus(tc.err)); got != tc.code {
			t.Fatalf("toStatus(%v) = %v, want %v", tc.err, got, tc.code)
		}
	}
}

func TestToSideRejectsUnknown(t *testing.T) {
	if _, err := toSide(0); err != nil {
		t.Fatalf("side 0: %v", err)
	}
	if _, err := toSide(1); err != nil {
		t.Fatalf("side 1: %v", err)
	}
	_, err := toSide(2)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for side 2, got %v", err)
	}
}
