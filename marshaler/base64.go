package marshaler

import "encoding/base64"

// NewBase64 returns a marshaler that encodes the output of m using standard
// base64, making arbitrary binary representations safe to carry in contexts
// that only accept text, such as opaque-text store values.
func NewBase64[T any](m Marshaler[T]) Marshaler[T] {
	return marshaler[T]{
		func(v T) ([]byte, error) {
			data, err := m.Marshal(v)
			if err != nil {
				return nil, err
			}

			encoded := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
			base64.StdEncoding.Encode(encoded, data)

			return encoded, nil
		},
		func(data []byte) (T, error) {
			decoded := make([]byte, base64.StdEncoding.DecodedLen(len(data)))

			n, err := base64.StdEncoding.Decode(decoded, data)
			if err != nil {
				var zero T
				return zero, err
			}

			return m.Unmarshal(decoded[:n])
		},
	}
}
