package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

// ConfigStd sorts map keys, so encoding the same value twice yields the same bytes.
var defaultConfig = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return defaultConfig.MarshalIndent(v, prefix, indent)
}

// MarshalToString encodes v straight into a string, used for bus entry bodies.
func MarshalToString(v any) (string, error) {
	return defaultConfig.MarshalToString(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

func UnmarshalString(data string, v any) error {
	return defaultConfig.UnmarshalFromString(data, v)
}

func Encode(w io.Writer, v any) error {
	enc := defaultConfig.NewEncoder(w)
	return enc.Encode(v)
}

func Decode(r io.Reader, v any) error {
	dec := defaultConfig.NewDecoder(r)
	return dec.Decode(v)
}

// Normalize converts an arbitrary Go value (structs, typed maps, slices) into
// the generic map/slice/float64 tree produced by decoding JSON.
func Normalize(v any) (any, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
