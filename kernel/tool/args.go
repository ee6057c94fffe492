package tool

import (
	"encoding/json"
	"fmt"
)

// DecodeArgs converts a raw tool-call argument map into a typed args
// struct through a JSON round trip.
func DecodeArgs[T any](args map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("tool: encode args: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("tool: decode args: %w", err)
	}
	return out, nil
}
