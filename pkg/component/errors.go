package component

import "errors"

var (
	// ErrUnknownComponent is reported when no function is registered
	// under a component name.
	ErrUnknownComponent = errors.New("rx: unknown component")

	// ErrUnknownResult is reported for a Result implementation outside the
	// closed set of variants.
	ErrUnknownResult = errors.New("rx: unknown component result")
)
