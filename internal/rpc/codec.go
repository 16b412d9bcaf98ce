package rpc

import (
	json "github.com/goccy/go-json"
	"google.golang.org/grpc/encoding"
)

const CodecName = "json"

// Codec carries PortalService messages as JSON on the gRPC wire.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (Codec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}
