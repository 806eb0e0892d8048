package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// decodeStruct unmarshals the JSON form of s into dest.
func decodeStruct(s *structpb.Struct, dest interface{}) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// encodeStruct converts v to a Struct through its JSON form.
func encodeStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}

// NewStruct converts a JSON-encodable value into a request message.
// Clients use it to build requests from Go values.
func NewStruct(v interface{}) (*structpb.Struct, error) {
	return encodeStruct(v)
}

// DecodeStruct unmarshals a response message into dest.
func DecodeStruct(s *structpb.Struct, dest interface{}) error {
	return decodeStruct(s, dest)
}
