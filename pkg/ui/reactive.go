package ui

// Reactive reports whether v is a reactive property value and returns it as
// a uniform compute function.
func Reactive(v any) (func() any, bool) {
	switch fn := v.(type) {
	case func() any:
		return fn, true
	case func() string:
		return func() any { return fn() }, true
	case func() bool:
		return func() any { return fn() }, true
	case func() int:
		return func() any { return fn() }, true
	case func() float64:
		return func() any { return fn() }, true
	case func() *Node:
		return func() any { return fn() }, true
	case func() []*Node:
		return func() any { return fn() }, true
	default:
		return nil, false
	}
}
