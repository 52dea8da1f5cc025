// Package notify pushes server-sent events to connected clients.
//
// A Registry maps a recipient id to at most one open Stream. Registering a
// second stream for the same recipient replaces the first. Delivery is
// at-most-once and best effort: a notification for a recipient without a
// stream is dropped, nothing is queued or retried, and a write to a stream
// whose connection has already gone away is indistinguishable from a
// successful one. The HTTP layer removes a stream when its request ends.
//
// Events are framed as
//
//	data: <json>\n\n
//
// which is the wire contract consuming clients rely on.
package notify
