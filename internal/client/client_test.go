package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/document"
	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/graphql"
)

func response(t *testing.T, body string) *graphql.Response {
	t.Helper()
	r, err := graphql.DecodeResponse([]byte(body))
	require.NoError(t, err)
	return r
}

type project struct {
	Name     string    `json:"name"`
	Stars    int       `json:"stars"`
	Released time.Time `json:"released"`
}

const projectQuery = `query p($slug: ID!) { project(slug: $slug) { name stars released } }`

func TestRetrieveValidField(t *testing.T) {
	mock := NewMockSyncTransport(response(t, `{"data":{"project":{"name":"spring-graphql","stars":3,"released":"2022-05-17T00:00:00Z"}}}`))
	c, err := NewSync(mock)
	require.NoError(t, err)

	name, err := ToEntity[string](context.Background(),
		c.Document(projectQuery).Variable("slug", "spring-graphql").RetrieveSync("project.name"))
	require.NoError(t, err)
	require.Equal(t, "spring-graphql", *name)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, map[string]any{"slug": "spring-graphql"}, reqs[0].ToMap()["variables"])
}

func TestRetrieveDecodesStruct(t *testing.T) {
	mock := NewMockTransport(response(t, `{"data":{"project":{"name":"gql","stars":42,"released":"2022-05-17T10:00:00Z"}}}`))
	c, err := New(mock)
	require.NoError(t, err)

	p, err := ToEntity[project](context.Background(), c.Document(projectQuery).RetrieveSync("project"))
	require.NoError(t, err)
	want := project{Name: "gql", Stars: 42, Released: time.Date(2022, 5, 17, 10, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, *p); diff != "" {
		t.Fatalf("decoded project mismatch (-want +got):\n%s", diff)
	}
}

func TestRetrieveFieldWithErrors(t *testing.T) {
	body := `{
		"data": {"project": {"name": null, "stars": 1}},
		"errors": [{"message": "name unavailable", "path": ["project", "name"]}]
	}`
	for _, path := range []string{"project.name", "project"} {
		c, err := NewSync(NewMockSyncTransport(response(t, body)))
		require.NoError(t, err)
		_, err = ToEntity[string](context.Background(), c.Document("{ project { name stars } }").RetrieveSync(path))
		var fae *FieldAccessError
		require.ErrorAs(t, err, &fae, path)
		require.Equal(t, path, fae.Field.Path.String())
		require.True(t, fae.Response.IsValid())
		require.NotNil(t, fae.Request)
		require.Contains(t, err.Error(), "name unavailable")
	}

	// A sibling is unaffected.
	c, err := NewSync(NewMockSyncTransport(response(t, body)))
	require.NoError(t, err)
	stars, err := ToEntity[int](context.Background(), c.Document("{ project { name stars } }").RetrieveSync("project.stars"))
	require.NoError(t, err)
	require.Equal(t, 1, *stars)
}

func TestRetrieveInvalidResponse(t *testing.T) {
	c, err := NewSync(NewMockSyncTransport(response(t, `{"data":null,"errors":[{"message":"denied"}]}`)))
	require.NoError(t, err)
	_, err = ToEntityList[string](context.Background(), c.Document("{ tags }").RetrieveSync("tags"))
	var fae *FieldAccessError
	require.ErrorAs(t, err, &fae)
	require.False(t, fae.Response.IsValid())
	require.Contains(t, err.Error(), "denied")
}

func TestRetrieveNullField(t *testing.T) {
	mock := NewMockSyncTransport(
		response(t, `{"data":{"project":null}}`),
		response(t, `{"data":{"project":null}}`),
	)
	c, err := NewSync(mock)
	require.NoError(t, err)

	p, err := ToEntity[project](context.Background(), c.Document("{ project { name } }").RetrieveSync("project"))
	require.NoError(t, err)
	require.Nil(t, p)

	list, err := ToEntityList[project](context.Background(), c.Document("{ project { name } }").RetrieveSync("project"))
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestRetrieveBadPath(t *testing.T) {
	c, err := NewSync(NewMockSyncTransport(response(t, `{"data":{"project":{"name":"x"}}}`)))
	require.NoError(t, err)
	_, err = ToEntity[string](context.Background(), c.Document("{ project { name } }").RetrieveSync("project.name.first"))
	var pe *graphql.PathError
	require.ErrorAs(t, err, &pe)
}

func TestRetrieveDecodeFailure(t *testing.T) {
	c, err := NewSync(NewMockSyncTransport(response(t, `{"data":{"project":{"name":"x","stars":"many"}}}`)))
	require.NoError(t, err)
	p, err := ToEntity[project](context.Background(), c.Document("{ project { name stars } }").RetrieveSync("project"))
	require.Error(t, err)
	require.Nil(t, p)
}

func TestRetrieveKeepsLargeIntegers(t *testing.T) {
	c, err := NewSync(NewMockSyncTransport(response(t, `{"data":{"id":9007199254740993,"big":18446744073709551615,"ratio":2.0}}`)))
	require.NoError(t, err)
	spec := c.Document("{ id big ratio }")

	id, err := ToEntity[int64](context.Background(), spec.RetrieveSync("id"))
	require.NoError(t, err)
	require.Equal(t, int64(9007199254740993), *id)

	big, err := ToEntity[uint64](context.Background(), spec.RetrieveSync("big"))
	require.NoError(t, err)
	require.Equal(t, uint64(18446744073709551615), *big)

	ratio, err := ToEntity[int](context.Background(), spec.RetrieveSync("ratio"))
	require.NoError(t, err)
	require.Equal(t, 2, *ratio)
}

func TestRetrieveRejectsLossyNumbers(t *testing.T) {
	c, err := NewSync(NewMockSyncTransport(response(t, `{"data":{"n":1.5,"wide":300,"neg":-1}}`)))
	require.NoError(t, err)
	spec := c.Document("{ n wide neg }")

	n, err := ToEntity[int](context.Background(), spec.RetrieveSync("n"))
	require.ErrorIs(t, err, errFraction)
	require.Nil(t, n)

	_, err = ToEntity[int8](context.Background(), spec.RetrieveSync("wide"))
	require.ErrorIs(t, err, strconv.ErrRange)

	_, err = ToEntity[uint](context.Background(), spec.RetrieveSync("neg"))
	require.ErrorIs(t, err, strconv.ErrRange)

	f, err := ToEntity[float64](context.Background(), spec.RetrieveSync("n"))
	require.NoError(t, err)
	require.Equal(t, 1.5, *f)
}

func TestDecoderRejectsFractionalFloat(t *testing.T) {
	var i int
	require.ErrorIs(t, MapstructureDecoder{}.Decode(1.5, &i), errFraction)
	require.NoError(t, MapstructureDecoder{}.Decode(float64(3), &i))
	require.Equal(t, 3, i)
}

func TestResponseFieldDecodeLeavesTargetOnFailure(t *testing.T) {
	resp := NewResponse(nil, response(t, `{"data":{"project":{"name":"x","stars":"many"}}}`))
	f, err := resp.Field("project")
	require.NoError(t, err)
	target := project{Name: "keep"}
	require.Error(t, f.Decode(&target))
	require.Equal(t, project{Name: "keep"}, target)

	require.Error(t, f.Decode(target), "non-pointer target")
}

func TestResponseFieldDecodeNull(t *testing.T) {
	resp := NewResponse(nil, response(t, `{"data":{"project":null}}`))
	f, err := resp.Field("project")
	require.NoError(t, err)
	target := project{Name: "old"}
	require.NoError(t, f.Decode(&target))
	require.Equal(t, project{}, target)

	invalid := NewResponse(nil, response(t, `{"data":null,"errors":[{"message":"no"}]}`))
	f, err = invalid.Field("project")
	require.NoError(t, err)
	var fae *FieldAccessError
	require.ErrorAs(t, f.Decode(&target), &fae)
}

func TestResolutionErrorSkipsChain(t *testing.T) {
	called := false
	c, err := New(NewMockTransport(), WithDocumentSource(document.MapSource{}),
		WithInterceptors(InterceptorFunc(func(ctx context.Context, req *Request, next Chain) *async.Future[*Response] {
			called = true
			return next(ctx, req)
		})))
	require.NoError(t, err)

	_, err = c.DocumentName("missing").Execute(context.Background()).Await(context.Background())
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	var nf *document.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "missing", nf.Name)
	require.False(t, called)
}

func TestDocumentNameResolves(t *testing.T) {
	mock := NewMockTransport(response(t, `{"data":{"greeting":"hi"}}`))
	c, err := New(mock, WithDocumentSource(document.MapSource{"hello": "{ greeting }"}))
	require.NoError(t, err)

	v, err := ToEntityAsync[string](context.Background(), c.DocumentName("hello").Retrieve("greeting")).Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hi", *v)
	require.Equal(t, "{ greeting }", mock.Requests()[0].Document())
}

func TestTransportErrorWrapping(t *testing.T) {
	boom := errors.New("connection refused")
	mock := NewMockSyncTransportWithErrors(nil, []error{boom})
	c, err := NewSync(mock)
	require.NoError(t, err)

	_, err = c.Document("{ a }").OperationName("A").ExecuteSync(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, boom)
	require.Equal(t, "A", te.Request.OperationName())
}

func TestClientErrorsAreNotWrappedTwice(t *testing.T) {
	inner := &TransportError{Err: errors.New("inner")}
	c, err := NewSync(SyncTransportFunc(func(context.Context, *graphql.Request) (*graphql.Response, error) {
		return nil, inner
	}))
	require.NoError(t, err)
	_, err = c.Document("{ a }").ExecuteSync(context.Background())
	require.Same(t, inner, err)
}

func TestSyncClientSubscriptionIllegalState(t *testing.T) {
	c, err := NewSync(NewMockSyncTransport())
	require.NoError(t, err)
	_, err = c.Document("subscription { tick }").ExecuteSubscription(context.Background()).Recv(context.Background())
	require.ErrorIs(t, err, ErrIllegalState)
	require.Empty(t, NewMockSyncTransport().Requests())
}

func TestInterceptorKindMismatch(t *testing.T) {
	_, err := New(NewMockTransport(), WithSyncInterceptors(SyncInterceptorFunc(nil)))
	require.Error(t, err)
	_, err = NewSync(NewMockSyncTransport(), WithInterceptors(InterceptorFunc(nil)))
	require.Error(t, err)
	_, err = New(nil)
	require.Error(t, err)
}

func TestSubscriptionRetrieval(t *testing.T) {
	mock := NewMockTransport().AddSubscription(nil,
		response(t, `{"data":{"tick":{"n":1}}}`),
		response(t, `{"data":{"tick":null}}`),
		response(t, `{"data":{"tick":{"n":3}}}`),
	)
	c, err := New(mock)
	require.NoError(t, err)

	type tick struct {
		N int `json:"n"`
	}
	got, err := ToEntityStream[tick](context.Background(), c.Document("subscription { tick { n } }").RetrieveSubscription("tick")).Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []tick{{1}, {3}}, got)
}

func TestSubscriptionListRetrieval(t *testing.T) {
	mock := NewMockTransport().AddSubscription(nil,
		response(t, `{"data":{"ids":[1,2]}}`),
		response(t, `{"data":{"ids":null}}`),
		response(t, `{"data":{"ids":[]}}`),
	)
	c, err := New(mock)
	require.NoError(t, err)
	got, err := ToEntityListStream[int](context.Background(), c.Document("subscription { ids }").RetrieveSubscription("ids")).Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, [][]int{{1, 2}, {}}, got)
}

func TestSubscriptionFieldErrorTerminates(t *testing.T) {
	mock := NewMockTransport().AddSubscription(nil,
		response(t, `{"data":{"tick":1}}`),
		response(t, `{"data":{"tick":null},"errors":[{"message":"bad tick","path":["tick"]}]}`),
		response(t, `{"data":{"tick":3}}`),
	)
	c, err := New(mock)
	require.NoError(t, err)
	got, err := ToEntityStream[int](context.Background(), c.Document("subscription { tick }").RetrieveSubscription("tick")).Collect(context.Background())
	var fae *FieldAccessError
	require.ErrorAs(t, err, &fae)
	require.Equal(t, []int{1}, got)
}

func TestSubscriptionTransportError(t *testing.T) {
	boom := errors.New("stream reset")
	mock := NewMockTransport().AddSubscription(boom, response(t, `{"data":{"tick":1}}`))
	c, err := New(mock)
	require.NoError(t, err)

	s := c.Document("subscription { tick }").ExecuteSubscription(context.Background())
	first, err := s.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"tick": json.Number("1")}, first.Data)
	_, err = s.Recv(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, boom)
}

func TestSubscriptionCloseStopsStream(t *testing.T) {
	mock := NewMockTransport().AddSubscription(nil,
		response(t, `{"data":{"tick":1}}`),
		response(t, `{"data":{"tick":2}}`),
	)
	c, err := New(mock)
	require.NoError(t, err)
	s := c.Document("subscription { tick }").ExecuteSubscription(context.Background())
	_, err = s.Recv(context.Background())
	require.NoError(t, err)
	s.Close()
	_, err = s.Recv(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestRequestSpecMerging(t *testing.T) {
	mock := NewMockTransport(response(t, `{"data":{"a":1}}`))
	var seen *Request
	c, err := New(mock, WithInterceptors(InterceptorFunc(func(ctx context.Context, req *Request, next Chain) *async.Future[*Response] {
		seen = req
		return next(ctx, req)
	})))
	require.NoError(t, err)

	_, err = c.Document("query A { a } query B { a }").
		OperationName("B").
		Variable("x", 1).
		Variables(map[string]any{"y": 2, "x": 3}).
		Extension("e", "v").
		Extensions(map[string]any{"f": true}).
		Attribute("trace", "on").
		Attributes(map[string]any{"tenant": "t1"}).
		Execute(context.Background()).Await(context.Background())
	require.NoError(t, err)

	require.Equal(t, "B", seen.OperationName())
	require.Equal(t, "query", seen.OperationType())
	require.Equal(t, map[string]any{"x": 3, "y": 2}, seen.Variables().Map())
	require.Equal(t, []string{"x", "y"}, seen.Variables().Keys())
	require.Equal(t, map[string]any{"e": "v", "f": true}, seen.Extensions().Map())
	require.Equal(t, map[string]any{"trace": "on", "tenant": "t1"}, seen.Attributes().Map())

	sent := mock.Requests()[0].ToMap()
	require.NotContains(t, sent, "attributes")
	require.Equal(t, "B", sent["operationName"])
}

func TestEmptyDocumentRejected(t *testing.T) {
	c, err := NewSync(NewMockSyncTransport())
	require.NoError(t, err)
	_, err = c.Document("").ExecuteSync(context.Background())
	require.ErrorIs(t, err, graphql.ErrEmptyDocument)
}

func TestClientPublishesEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	var mu sync.Mutex
	var seen []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}
	defer eventbus.Subscribe(func(_ context.Context, e events.ClientRequestStart) { record("start:" + e.OperationType) })()
	defer eventbus.Subscribe(func(_ context.Context, e events.TransportStart) { record("transport:" + e.Mode) })()
	defer eventbus.Subscribe(func(_ context.Context, e events.TransportFinish) { record("transport-done") })()
	defer eventbus.Subscribe(func(_ context.Context, e events.ClientRequestFinish) {
		record("finish:" + string(rune('0'+e.ErrorCount)))
	})()

	c, err := NewSync(NewMockSyncTransport(response(t, `{"data":{"a":1},"errors":[{"message":"x","path":["b"]}]}`)))
	require.NoError(t, err)
	_, err = c.Document("{ a b }").ExecuteSync(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"start:query", "transport:sync", "transport-done", "finish:1"}, seen)
}
