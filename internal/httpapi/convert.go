package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf bodies are google.protobuf.Struct messages with the same field
// names as the JSON bodies, so one set of API types serves both encodings.

// ToStruct converts a JSON-tagged API value into a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return structpb.NewStruct(m)
}

// FromStruct fills the JSON-tagged value dst from a protobuf Struct. Unknown
// fields are rejected, as they are for JSON bodies.
func FromStruct(s *structpb.Struct, dst any) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("decode %T: %w", dst, err)
	}
	return decodeJSON(data, dst)
}

func decodeJSON(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
