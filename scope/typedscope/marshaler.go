package typedscope

// Marshaler is a constraint for types that can marshal and unmarshal values of
// type V.
type Marshaler[V any] interface {
	Marshal(V) ([]byte, error)
	Unmarshal([]byte) (V, error)
}
