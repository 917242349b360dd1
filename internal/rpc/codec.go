package rpc

import (
	cbor "github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype under which the CBOR codec is
// registered.
const CodecName = "cbor"

// cborCodec marshals gRPC messages with CBOR. Task payloads are schemaless
// Go values, so the wire carries CBOR-encoded request/reply structs instead
// of a fixed protobuf schema.
type cborCodec struct{}

func (cborCodec) Name() string { return CodecName }

func (cborCodec) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (cborCodec) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(cborCodec{})
}

// Marshal encodes a task payload or result value for transport.
func Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

// Unmarshal decodes a task payload or result value received over the wire.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
