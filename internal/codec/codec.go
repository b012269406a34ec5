// Package codec holds the wire encodings reports travel in. JSON is the
// default and carries non-finite benchmark results as strings; CBOR
// carries them natively and is more compact.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

const (
	NameJSON = "json"
	NameCBOR = "cbor"
)

// Codec matches grpc's encoding.Codec so one value serves both the gRPC
// transport and the message transports.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return NameJSON }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type cborCodec struct{}

func (cborCodec) Name() string                       { return NameCBOR }
func (cborCodec) Marshal(v any) ([]byte, error)      { return encMode.Marshal(v) }
func (cborCodec) Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

var (
	JSON Codec = jsonCodec{}
	CBOR Codec = cborCodec{}
)

// encMode uses Core Deterministic Encoding so the same report always
// produces the same bytes. netip.Addr goes over the wire as text.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	encoding.RegisterCodec(JSON)
	encoding.RegisterCodec(CBOR)
}

func ForName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON, nil
	case NameCBOR:
		return CBOR, nil
	default:
		return nil, fmt.Errorf("unsupported wire codec %q", name)
	}
}
