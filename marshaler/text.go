package marshaler

// Text marshals and unmarshals the built-in string type by performing a Go
// type-conversion. It is suitable for values that are already opaque text.
var Text = New(
	func(v string) ([]byte, error) {
		return []byte(v), nil
	},
	func(data []byte) (string, error) {
		return string(data), nil
	},
)
