package collection

import (
	"fmt"
	"strconv"
)

// Resource is an opaque key/value record. The library never interprets its
// fields beyond the configured id field.
type Resource map[string]any

// Clone returns a shallow copy of the resource.
func (r Resource) Clone() Resource {
	if r == nil {
		return nil
	}
	out := make(Resource, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a fresh resource holding r's fields overlaid with patch's
// fields. Neither input is modified.
func (r Resource) Merge(patch Resource) Resource {
	out := make(Resource, len(r)+len(patch))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// ID returns the resource's identifier under the given id field as a string.
// The second return is false when the field is absent or has no usable
// string form.
func (r Resource) ID(idKey string) (string, bool) {
	v, ok := r[idKey]
	if !ok {
		return "", false
	}
	return IDString(v)
}

// IDString renders an id value as a map key. JSON decoding can surface ids
// as strings or numbers depending on the wire payload, so both are accepted.
func IDString(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", false
		}
		return id, true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case float64:
		// jsoniter decodes JSON numbers into float64 for map[string]any.
		if id == float64(int64(id)) {
			return strconv.FormatInt(int64(id), 10), true
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case fmt.Stringer:
		s := id.String()
		return s, s != ""
	default:
		return "", false
	}
}
