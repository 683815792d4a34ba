package graphql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Path locates a value inside response data. Elements are field names
// (string) or list indexes (int).
type Path []any

// PathError reports a malformed path expression or a path that cannot be
// followed through the response data.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("graphql: invalid path %q: %s", e.Path, e.Reason)
}

// ParsePath parses a dot-separated field path with optional list indexes,
// e.g. "project.releases[0].version". The empty string is the data root.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	var out Path
	for _, part := range strings.Split(s, ".") {
		name, rest, _ := strings.Cut(part, "[")
		if name == "" {
			return nil, &PathError{Path: s, Reason: "empty field name"}
		}
		out = append(out, name)
		if rest == "" {
			if strings.Contains(part, "[") || strings.Contains(part, "]") {
				return nil, &PathError{Path: s, Reason: "unbalanced brackets"}
			}
			continue
		}
		// rest is "0]" or "0][1]"
		for _, idx := range strings.Split(rest, "[") {
			num, ok := strings.CutSuffix(idx, "]")
			if !ok || num == "" {
				return nil, &PathError{Path: s, Reason: "unbalanced brackets"}
			}
			i, err := strconv.Atoi(num)
			if err != nil || i < 0 {
				return nil, &PathError{Path: s, Reason: fmt.Sprintf("bad index %q", num)}
			}
			out = append(out, i)
		}
	}
	return out, nil
}

// String renders the path in the form accepted by ParsePath.
func (p Path) String() string {
	var b strings.Builder
	for i, el := range p {
		switch v := el.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

// HasPrefix reports whether prefix is a leading part of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if !samePathElement(p[i], prefix[i]) {
			return false
		}
	}
	return true
}

func samePathElement(a, b any) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	}
	return false
}

// PathFromAST converts an error path as reported by the server.
func PathFromAST(p ast.Path) Path {
	out := make(Path, 0, len(p))
	for _, el := range p {
		switch v := el.(type) {
		case ast.PathName:
			out = append(out, string(v))
		case ast.PathIndex:
			out = append(out, int(v))
		}
	}
	return out
}

// lookup follows path through data. A nil value anywhere on the way yields
// (nil, false, nil). Stepping into a value of the wrong shape is an error.
func lookup(data any, path Path) (any, bool, error) {
	value := data
	for i, el := range path {
		if value == nil {
			return nil, false, nil
		}
		switch seg := el.(type) {
		case string:
			m, ok := value.(map[string]any)
			if !ok {
				return nil, false, &PathError{Path: path.String(), Reason: fmt.Sprintf("%s is not an object", path[:i])}
			}
			value, ok = m[seg]
			if !ok {
				return nil, false, nil
			}
		case int:
			l, ok := value.([]any)
			if !ok {
				return nil, false, &PathError{Path: path.String(), Reason: fmt.Sprintf("%s is not a list", path[:i])}
			}
			if seg >= len(l) {
				return nil, false, nil
			}
			value = l[seg]
		default:
			return nil, false, &PathError{Path: path.String(), Reason: fmt.Sprintf("unsupported element %T", el)}
		}
	}
	return value, value != nil, nil
}
