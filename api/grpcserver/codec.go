package grpcserver

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype clients must request:
// grpc.CallContentSubtype(CodecName).
const CodecName = "matchwire"

// Codec moves Message values through grpc without generated stubs.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("grpcserver: cannot marshal %T", v)
	}
	return m.MarshalWire()
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("grpcserver: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(Codec{})
}
