package document

import (
	"context"
	"fmt"

	"github.com/hanpama/gqlclient/internal/language"
)

// SyntaxError reports a resolved document that does not parse.
type SyntaxError struct {
	Name string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("document: %q: %v", e.Name, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// WithSyntaxCheck parses every document resolved by next and rejects those
// that are not valid executable GraphQL.
func WithSyntaxCheck(next Source) Source {
	return SourceFunc(func(ctx context.Context, name string) (string, error) {
		doc, err := next.Document(ctx, name)
		if err != nil {
			return "", err
		}
		if _, err := language.ParseQuery(doc); err != nil {
			return "", &SyntaxError{Name: name, Err: err}
		}
		return doc, nil
	})
}
