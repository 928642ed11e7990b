// Package render serializes UI descriptions to HTML.
//
// Text and attribute values are always escaped. Void elements are written
// without an end tag, and boolean attributes such as disabled are written
// as a bare name when true and omitted when false. Attributes are written
// in name order, so output is deterministic.
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(node)
//
// Reactive values are evaluated once at render time. To render a live tree,
// mount it with the runtime and serialize dom.Snapshot of the mounted
// document instead; package hydrate does this and embeds the state tree
// with RenderState.
package render
