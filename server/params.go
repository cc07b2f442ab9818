package server

import (
	"encoding/json"
	"strings"
)

// Params arrive as decoded JSON, so numbers are float64 and everything
// is optional. These helpers fold the common coercions.

func paramString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	v, _ := params[key].(string)
	return strings.TrimSpace(v)
}

func paramInt(params map[string]any, key string, fallback int) int {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fallback
		}
		return int(n)
	}
	return fallback
}

func paramFloat(params map[string]any, key string, fallback float64) float64 {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func paramBool(params map[string]any, key string) bool {
	if params == nil {
		return false
	}
	v, _ := params[key].(bool)
	return v
}

// paramStruct decodes a nested params object into a typed record by
// JSON roundtrip. Used by the two-phase travel event protocol.
func paramStruct(params map[string]any, key string, out any) bool {
	if params == nil {
		return false
	}
	raw, err := json.Marshal(params[key])
	if err != nil || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}
