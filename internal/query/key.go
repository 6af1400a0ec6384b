package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// keySep terminates every fragment of a key hash. JSON escapes control characters,
// so it can never appear inside an encoded fragment.
const keySep = "\x1f"

// Key identifies a cache entry: a resource tag followed by ordered parameter fragments.
// A shorter key is a prefix pattern for every key that extends it:
//
//	K("appointments")                       matches all appointment lists
//	K("appointments", filter)               matches one list
//	K("admin", "appointments")              matches the admin namespace only
type Key struct {
	Tag    string
	Params []any
}

// K builds a key
func K(tag string, params ...any) Key {
	return Key{Tag: tag, Params: params}
}

// With returns a new key extending k with more fragments
func (k Key) With(params ...any) Key {
	p := make([]any, 0, len(k.Params)+len(params))
	p = append(p, k.Params...)
	p = append(p, params...)
	return Key{Tag: k.Tag, Params: p}
}

// Hash is the canonical identity of the key. Two keys are equal iff their hashes are.
// Params are JSON encoded, which sorts map keys and honours omitempty tags.
func (k Key) Hash() string {
	var b strings.Builder
	b.WriteString(k.Tag)
	b.WriteString(keySep)
	for _, p := range k.Params {
		b.WriteString(fragment(p))
		b.WriteString(keySep)
	}
	return b.String()
}

// HasPrefix reports whether prefix matches k for invalidation purposes
func (k Key) HasPrefix(prefix Key) bool {
	return strings.HasPrefix(k.Hash(), prefix.Hash())
}

// Equal reports key identity
func (k Key) Equal(other Key) bool {
	return k.Hash() == other.Hash()
}

// String renders the key for logs: tag/frag/frag
func (k Key) String() string {
	parts := make([]string, 0, len(k.Params)+1)
	parts = append(parts, k.Tag)
	for _, p := range k.Params {
		parts = append(parts, fragment(p))
	}
	return strings.Join(parts, "/")
}

func fragment(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
