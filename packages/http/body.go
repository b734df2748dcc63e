package http

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Body is a JSON object whose keys serialise in insertion order.
type Body struct {
	keys   []string
	values map[string]any
}

func NewBody() *Body {
	return &Body{values: make(map[string]any)}
}

// Set adds or replaces a field. Replacing keeps the original position.
func (b *Body) Set(key string, value any) *Body {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
	return b
}

func (b *Body) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *Body) Keys() []string {
	keys := make([]string, len(b.keys))
	copy(keys, b.keys)
	return keys
}

func (b *Body) Len() int {
	return len(b.keys)
}

func (b *Body) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(b.values[key])
		if err != nil {
			return nil, errors.Wrapf(err, "encoding body field %q", key)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
