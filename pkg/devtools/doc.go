// Package devtools serves a live state inspector over a websocket.
//
// Clients exchange JSON text frames. Requests carry an op:
//
//	{"op":"snapshot"}
//	{"op":"watch","path":"todos"}
//	{"op":"unwatch","path":"todos"}
//	{"op":"set","path":"filter","value":"done"}     // AllowWrites only
//	{"op":"delete","path":"filter"}                 // AllowWrites only
//
// A watch installs a hierarchical external subscription on the store, so
// writes to the path, below it or to one of its ancestors stream back as
// {"type":"change",...} messages. Subscriptions are removed when the
// connection closes.
//
// All store access is posted to the store's loop; the loop must be driven
// (for example by Loop.Run) while clients are connected.
package devtools
