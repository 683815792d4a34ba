package graphql

import jsoniter "github.com/json-iterator/go"

// JSON is the codec used for GraphQL payloads on the wire. Numbers decoded
// into interface values are kept as json.Number so that integers beyond
// 2^53 survive until they are decoded into a typed target.
var JSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()
