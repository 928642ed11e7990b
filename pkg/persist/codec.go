package persist

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ContentType is the media type of encoded snapshots.
const ContentType = "application/vnd.rx.snapshot+msgpack"

// FormatVersion is the snapshot format written by Encode.
const FormatVersion = 1

// ErrVersion is returned when decoding a snapshot of an unknown format.
var ErrVersion = errors.New("persist: unsupported snapshot version")

// Snapshot is a decoded snapshot.
type Snapshot struct {
	Version int            `msgpack:"v"`
	Taken   time.Time      `msgpack:"t"`
	State   map[string]any `msgpack:"s"`
}

// Encode serializes a state tree.
func Encode(tree map[string]any, taken time.Time) ([]byte, error) {
	packed, err := msgpack.Marshal(&Snapshot{
		Version: FormatVersion,
		Taken:   taken.UTC(),
		State:   tree,
	})
	if err != nil {
		return nil, fmt.Errorf("persist: encode: %w", err)
	}
	return packed, nil
}

// Decode deserializes a snapshot. Integers decode as int and floats as
// float64, matching values written from Go code.
func Decode(data []byte) (*Snapshot, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("persist: decode: %w", err)
	}
	if snap.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, snap.Version)
	}
	if snap.State == nil {
		snap.State = map[string]any{}
	}
	for k, v := range snap.State {
		snap.State[k] = normalize(v)
	}
	return &snap, nil
}

// normalize rewrites loosely decoded numbers in place.
func normalize(v any) any {
	switch x := v.(type) {
	case int64:
		if x >= math.MinInt && x <= math.MaxInt {
			return int(x)
		}
		return x
	case uint64:
		if x <= math.MaxInt {
			return int(x)
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}
