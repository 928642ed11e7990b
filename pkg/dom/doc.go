// Package dom defines the rendering surface the runtime drives and ships an
// in-memory implementation of it.
//
// The runtime never touches a concrete document directly. It creates nodes
// and applies text, attributes, styles and children through an Adapter.
// Document is an Adapter backed by a plain Go tree; it is used for
// server-side rendering, hydration and tests.
package dom
