package transport

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is registered with gRPC's codec registry and selected on every
// call via grpc.CallContentSubtype. We hand-roll this
// instead of depending on protoc-generated .pb.go stubs, since the wire
// schema here is exactly the request/reply types this package defines and
// nothing more.
const codecName = "raftlog-gob"

// gobCodec implements encoding.Codec over encoding/gob. It only ever needs
// to marshal the small, fixed set of request/reply structs this package
// defines.
type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}

func (gobCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
