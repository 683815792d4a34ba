package language

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document. Only syntax is checked; there is
// no schema to validate against on the client side.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// OperationType reports whether the selected operation of source is a query,
// mutation or subscription. With an empty operationName the document must
// contain exactly one operation.
func OperationType(source, operationName string) (Operation, error) {
	doc, err := ParseQuery(source)
	if err != nil {
		return "", err
	}
	op, err := SelectOperation(doc, operationName)
	if err != nil {
		return "", err
	}
	return op.Operation, nil
}

// SelectOperation picks the operation named operationName, or the only
// operation when the name is empty.
func SelectOperation(doc *QueryDocument, operationName string) (*OperationDefinition, error) {
	if operationName == "" {
		if len(doc.Operations) != 1 {
			return nil, fmt.Errorf("language: document has %d operations, operation name required", len(doc.Operations))
		}
		return doc.Operations[0], nil
	}
	op := doc.Operations.ForName(operationName)
	if op == nil {
		return nil, fmt.Errorf("language: operation %q not found", operationName)
	}
	return op, nil
}

// OperationNames lists the named operations of a document in order.
func OperationNames(doc *QueryDocument) []string {
	var names []string
	for _, op := range doc.Operations {
		if op.Name != "" {
			names = append(names, op.Name)
		}
	}
	return names
}
