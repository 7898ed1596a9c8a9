package tool

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bpowers/agentcore/schema"
)

// Coerce converts a decoded JSON value to match the types named in s,
// recursing into arrays and objects. Properties not described by the
// schema pass through unchanged. This mirrors the loose, best-effort
// coercion a dynamically typed caller would apply before invoking a typed
// handler: "integer" -> int, "number" -> float64, "boolean" -> true iff the
// string case-insensitively matches one of true/1/t/yes, "string" ->
// string. Values that don't parse under the target type are returned
// unmodified rather than erroring, matching the Coerce failure -> leave it
// up to schema validation contract used by Registry.Execute.
func Coerce(data any, s *schema.JSON) any {
	if s == nil {
		return data
	}
	switch s.TypeString() {
	case "object":
		return coerceObject(data, s)
	case "array":
		return coerceArray(data, s)
	default:
		return coerceBasic(data, s.TypeString())
	}
}

func coerceBasic(data any, schemaType string) any {
	switch schemaType {
	case "integer":
		switch v := data.(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return data
			}
			return n
		default:
			return data
		}
	case "number":
		switch v := data.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return data
			}
			return f
		default:
			return data
		}
	case "boolean":
		switch v := data.(type) {
		case bool:
			return v
		case string:
			return isTruthy(v)
		default:
			return data
		}
	case "string":
		switch v := data.(type) {
		case string:
			return v
		default:
			return fmt.Sprintf("%v", v)
		}
	default:
		return data
	}
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "t", "yes":
		return true
	default:
		return false
	}
}

func coerceArray(data any, s *schema.JSON) any {
	list, ok := data.([]any)
	if !ok {
		return data
	}
	out := make([]any, len(list))
	for i, item := range list {
		out[i] = Coerce(item, s.Items)
	}
	return out
}

func coerceObject(data any, s *schema.JSON) any {
	obj, ok := data.(map[string]any)
	if !ok {
		return data
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if propSchema, found := s.Properties[k]; found {
			out[k] = Coerce(v, propSchema)
		} else {
			out[k] = v
		}
	}
	return out
}
