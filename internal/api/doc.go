// Package api defines the serializable views of requests and history entries
// shared by the IPC surface and CLI rendering, plus the conversions from
// storage types.
package api
