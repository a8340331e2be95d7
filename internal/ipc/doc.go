// Package ipc exposes daemon control and request operations over JSON-RPC on
// a Unix domain socket. The CLI is the only intended client; the wire types
// reuse the api package DTOs so both ends render the same views.
package ipc
