// Package graphql holds the transport-neutral GraphQL request and response
// model shared by the client, its transports and test helpers.
//
// Requests keep variables and extensions in insertion order so that their
// serialized form is deterministic. Responses expose raw data plus the
// errors scoped to any field path, see Response.Field.
package graphql
