// Package interceptors provides stock client interceptors. Each one exposes
// a Sync form for clients built on a blocking transport and an Async form
// for clients built on a non-blocking transport.
package interceptors
