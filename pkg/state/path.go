package state

import "strings"

// PathSeparator separates the segments of a state path.
const PathSeparator = "."

// ValidPath reports whether path can address the state tree.
// A valid path is non-empty, contains no ".." and no empty segment.
func ValidPath(path string) bool {
	if path == "" {
		return false
	}
	if strings.Contains(path, "..") {
		return false
	}
	if strings.HasPrefix(path, PathSeparator) || strings.HasSuffix(path, PathSeparator) {
		return false
	}
	return true
}

// Join joins segments into a path.
func Join(segments ...string) string {
	return strings.Join(segments, PathSeparator)
}

// splitPath splits a valid path into its segments.
func splitPath(path string) []string {
	return strings.Split(path, PathSeparator)
}

// Ancestors returns the proper ancestors of path, nearest first.
//
//	Ancestors("a.b.c") // ["a.b", "a"]
func Ancestors(path string) []string {
	var out []string
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '.' {
			out = append(out, path[:i])
		}
	}
	return out
}

// IsDescendant reports whether path lies strictly below ancestor.
func IsDescendant(path, ancestor string) bool {
	return len(path) > len(ancestor) &&
		strings.HasPrefix(path, ancestor) &&
		path[len(ancestor)] == '.'
}

// Related reports whether a and b are equal or one contains the other.
func Related(a, b string) bool {
	return a == b || IsDescendant(a, b) || IsDescendant(b, a)
}
