// Package document resolves logical operation names to GraphQL document text.
//
// A Source is consulted when a request is built from a document name rather
// than literal text. FileSource reads documents from a filesystem, MapSource
// serves them from memory, and CachingSource and WithSyntaxCheck decorate any
// other Source.
package document
