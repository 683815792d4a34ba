package graphql

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

func TestRequestMapRoundTrip(t *testing.T) {
	var vars Values
	vars.Set("slug", "spring-framework")
	req, err := NewRequest("query p($slug: ID!) { project(slug: $slug) { name } }", "", vars, Values{})
	require.NoError(t, err)

	m := req.ToMap()
	want := map[string]any{
		"query":     req.Document(),
		"variables": map[string]any{"slug": "spring-framework"},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("ToMap mismatch (-want +got):\n%s", diff)
	}

	back, err := RequestFromMap(m)
	require.NoError(t, err)
	require.Equal(t, req.Document(), back.Document())
	v, ok := back.Variables().Get("slug")
	require.True(t, ok)
	require.Equal(t, "spring-framework", v)
}

func TestRequestRejectsEmptyDocument(t *testing.T) {
	_, err := NewRequest("", "", Values{}, Values{})
	require.ErrorIs(t, err, ErrEmptyDocument)

	_, err = RequestFromMap(map[string]any{"variables": map[string]any{}})
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestRequestJSONKeepsInsertionOrder(t *testing.T) {
	var vars, exts Values
	vars.Set("z", 1)
	vars.Set("a", 2)
	exts.Set("persistedQuery", map[string]any{"version": 1})
	req, err := NewRequest("{ a }", "Op", vars, exts)
	require.NoError(t, err)

	b, err := req.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"query":"{ a }","operationName":"Op","variables":{"z":1,"a":2},"extensions":{"persistedQuery":{"version":1}}}`, string(b))
	require.Less(t, indexOf(string(b), `"z"`), indexOf(string(b), `"a":2`))

	var back Request
	require.NoError(t, back.UnmarshalJSON(b))
	require.Equal(t, []string{"z", "a"}, back.Variables().Keys())
	require.Equal(t, "Op", back.OperationName())
}

func TestRequestAccessorsReturnCopies(t *testing.T) {
	var vars Values
	vars.Set("a", 1)
	req, err := NewRequest("{ a }", "", vars, Values{})
	require.NoError(t, err)
	vars.Set("b", 2)
	got := req.Variables()
	got.Set("c", 3)
	require.Equal(t, []string{"a"}, req.Variables().Keys())
}

func TestRequestToMapOmitsEmpty(t *testing.T) {
	req, err := NewRequest("{ a }", "", Values{}, Values{})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"query": "{ a }"}, req.ToMap())
}

func TestParsePath(t *testing.T) {
	cases := []struct {
		in   string
		want Path
	}{
		{"", Path{}},
		{"project", Path{"project"}},
		{"project.releases[0].version", Path{"project", "releases", 0, "version"}},
		{"matrix[1][2]", Path{"matrix", 1, 2}},
	}
	for _, c := range cases {
		got, err := ParsePath(c.in)
		require.NoError(t, err, c.in)
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("ParsePath(%q) (-want +got):\n%s", c.in, diff)
		}
		require.Equal(t, c.in, got.String())
	}

	for _, bad := range []string{"a..b", "a[", "a[x]", "a[-1]", "a]", ".a", "[0]"} {
		_, err := ParsePath(bad)
		var pe *PathError
		require.ErrorAs(t, err, &pe, bad)
	}
}

func TestPathHasPrefix(t *testing.T) {
	p := Path{"a", "b", 0}
	require.True(t, p.HasPrefix(Path{}))
	require.True(t, p.HasPrefix(Path{"a", "b"}))
	require.True(t, p.HasPrefix(p))
	require.False(t, p.HasPrefix(Path{"a", "c"}))
	require.False(t, p.HasPrefix(Path{"a", "b", 0, "c"}))
	require.False(t, Path{"a", 0}.HasPrefix(Path{"a", "0"}))
}

func TestDecodeResponse(t *testing.T) {
	body := `{
		"data": {"project": {"name": "gql", "releases": [{"version": "1.0"}, null]}},
		"errors": [
			{"message": "boom", "path": ["project", "releases", 1], "locations": [{"line": 1, "column": 2}]},
			{"message": "global"}
		],
		"extensions": {"cost": 3}
	}`
	resp, err := DecodeResponse([]byte(body))
	require.NoError(t, err)
	require.True(t, resp.IsValid())
	require.Len(t, resp.Errors, 2)
	require.Equal(t, ast.Path{ast.PathName("project"), ast.PathName("releases"), ast.PathIndex(1)}, resp.Errors[0].Path)

	m := resp.ToMap()
	require.Equal(t, map[string]any{"cost": json.Number("3")}, m["extensions"])
	errs := m["errors"].([]any)
	require.Equal(t, []any{"project", "releases", 1}, errs[0].(map[string]any)["path"])

	back, err := ResponseFromMap(m)
	require.NoError(t, err)
	require.Equal(t, resp.Data, back.Data)
	require.Equal(t, resp.Errors[0].Path, back.Errors[0].Path)
}

func TestResponseIsValid(t *testing.T) {
	require.False(t, (*Response)(nil).IsValid())
	resp, err := DecodeResponse([]byte(`{"data": null, "errors": [{"message": "denied"}]}`))
	require.NoError(t, err)
	require.False(t, resp.IsValid())
}

func TestFieldErrorsScope(t *testing.T) {
	resp := &Response{
		Data: map[string]any{
			"me": map[string]any{
				"name":    "ada",
				"friends": []any{map[string]any{"name": "bob"}, nil},
			},
			"other": 1,
		},
		Errors: gqlerror.List{
			gqlerror.ErrorPathf(ast.Path{ast.PathName("me"), ast.PathName("friends"), ast.PathIndex(1)}, "below"),
			gqlerror.ErrorPathf(ast.Path{ast.PathName("other")}, "sibling"),
			gqlerror.Errorf("no path"),
		},
	}

	f, err := resp.Field("me.friends")
	require.NoError(t, err)
	require.Len(t, f.Errors, 1)
	require.Equal(t, "below", f.Errors[0].Message)

	f, err = resp.Field("me.friends[1].name")
	require.NoError(t, err)
	require.False(t, f.HasValue())
	require.Len(t, f.Errors, 1, "ancestor error applies")

	f, err = resp.Field("me.name")
	require.NoError(t, err)
	require.Equal(t, "ada", f.Value)
	require.Empty(t, f.Errors)

	f, err = resp.Field("")
	require.NoError(t, err)
	require.Empty(t, f.Errors)
	require.Equal(t, resp.Data, f.Value)
}

func TestFieldLookupErrors(t *testing.T) {
	resp := &Response{Data: map[string]any{"me": map[string]any{"name": "ada", "tags": []any{"x"}}}}

	_, err := resp.Field("me.name.first")
	var pe *PathError
	require.ErrorAs(t, err, &pe)

	_, err = resp.Field("me[0]")
	require.ErrorAs(t, err, &pe)

	_, err = resp.Field("me..name")
	require.ErrorAs(t, err, &pe)

	f, err := resp.Field("me.tags[5]")
	require.NoError(t, err)
	require.False(t, f.HasValue())

	f, err = resp.Field("me.missing.deeper")
	require.NoError(t, err)
	require.False(t, f.HasValue())
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
