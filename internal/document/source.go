package document

import (
	"context"
	"fmt"
	"strings"
)

// Source resolves a document name to its text.
type Source interface {
	Document(ctx context.Context, name string) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, name string) (string, error)

func (f SourceFunc) Document(ctx context.Context, name string) (string, error) { return f(ctx, name) }

// NotFoundError is returned when no document exists for a name.
type NotFoundError struct {
	Name      string
	Locations []string
}

func (e *NotFoundError) Error() string {
	if len(e.Locations) == 0 {
		return fmt.Sprintf("document: %q not found", e.Name)
	}
	return fmt.Sprintf("document: %q not found in %s", e.Name, strings.Join(e.Locations, ", "))
}

// MapSource serves documents from memory.
type MapSource map[string]string

func (m MapSource) Document(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc, ok := m[name]; ok {
		return doc, nil
	}
	return "", &NotFoundError{Name: name}
}
