// Package client implements a GraphQL client around an interceptor chain.
//
// A Client is built on either a blocking SyncTransport or a non-blocking
// Transport. Requests are assembled with a RequestSpec, pass through the
// registered interceptors in order, and reach exactly one terminal step bound
// to the transport. Clients built on a blocking transport expose the
// non-blocking API by running the blocking chain on a scheduler, and clients
// built on a non-blocking transport expose the blocking API by waiting on the
// future, optionally bounded by a timeout.
//
// Retrieval specs extract a single field from responses and decode it into
// Go values. A field is only usable when the response carries data and no
// error is attached at, above or below the field's path; otherwise retrieval
// fails with a *FieldAccessError.
package client
