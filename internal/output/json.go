package output

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// maxInlineBytes is the longest byte string NormalizeJSONValue keeps verbatim.
const maxInlineBytes = 32

// NormalizeJSONValue converts a generically decoded CBOR value into one encoding/json accepts:
// maps get string keys, tags become {"tag", "value"} objects and long byte strings are replaced
// by their length.
func NormalizeJSONValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = NormalizeJSONValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = NormalizeJSONValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = NormalizeJSONValue(item)
		}
		return out
	case cbor.Tag:
		return map[string]any{
			"tag":   v.Number,
			"value": NormalizeJSONValue(v.Content),
		}
	case []byte:
		if len(v) > maxInlineBytes {
			return fmt.Sprintf("<%d bytes>", len(v))
		}
		return v
	default:
		return v
	}
}
