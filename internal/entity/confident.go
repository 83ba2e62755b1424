package entity

// Confident pairs a possibly-absent value with a confidence score in [0,1].
// A nil Value is "absent"; a present value with confidence 0 is a different
// state and the two must never collapse into one.
type Confident[T any] struct {
	Value      *T      `json:"value"`
	Confidence float64 `json:"confidence"`
}

// NewConfident wraps a present value at the given confidence.
func NewConfident[T any](v T, confidence float64) Confident[T] {
	return Confident[T]{Value: &v, Confidence: confidence}
}

// Absent returns the zero wrapper: no value, confidence 0.
func Absent[T any]() Confident[T] {
	return Confident[T]{}
}

// Present reports whether a value is carried.
func (c Confident[T]) Present() bool { return c.Value != nil }

// ValueOr returns the wrapped value or def when absent.
func (c Confident[T]) ValueOr(def T) T {
	if c.Value == nil {
		return def
	}
	return *c.Value
}

// Set overwrites the wrapped value and confidence in place.
func (c *Confident[T]) Set(v T, confidence float64) {
	c.Value = &v
	c.Confidence = confidence
}
