package client

import (
	"context"
	"fmt"

	"github.com/hanpama/gqlclient/internal/async"
)

// RetrieveSyncSpec retrieves one field with a blocking call.
type RetrieveSyncSpec struct {
	spec *RequestSpec
	path string
}

// Field executes the request and returns the valid field, or a
// *FieldAccessError when the response has no data or the field carries
// errors.
func (s *RetrieveSyncSpec) Field(ctx context.Context) (*ResponseField, error) {
	resp, err := s.spec.ExecuteSync(ctx)
	if err != nil {
		return nil, err
	}
	return validField(resp, s.path)
}

// RetrieveSpec retrieves one field from a single asynchronous response.
type RetrieveSpec struct {
	spec *RequestSpec
	path string
}

// Field is the asynchronous form of RetrieveSyncSpec.Field.
func (s *RetrieveSpec) Field(ctx context.Context) *async.Future[*ResponseField] {
	path := s.path
	return async.Map(s.spec.Execute(ctx), func(resp *Response) (*ResponseField, error) {
		return validField(resp, path)
	})
}

// RetrieveSubscriptionSpec retrieves one field from every response of a
// subscription.
type RetrieveSubscriptionSpec struct {
	spec *RequestSpec
	path string
}

// Fields streams the field of each response. The stream fails with a
// *FieldAccessError at the first invalid response.
func (s *RetrieveSubscriptionSpec) Fields(ctx context.Context) *async.Stream[*ResponseField] {
	path := s.path
	return async.MapStream(s.spec.ExecuteSubscription(ctx), func(resp *Response) (*ResponseField, error) {
		return validField(resp, path)
	})
}

// ToEntity executes s and decodes the field into a T. A null field with no
// errors yields nil.
func ToEntity[T any](ctx context.Context, s *RetrieveSyncSpec) (*T, error) {
	f, err := s.Field(ctx)
	if err != nil {
		return nil, err
	}
	return entity[T](f)
}

// ToEntityList executes s and decodes the field into a []T. A null field with
// no errors yields an empty slice.
func ToEntityList[T any](ctx context.Context, s *RetrieveSyncSpec) ([]T, error) {
	f, err := s.Field(ctx)
	if err != nil {
		return nil, err
	}
	return entityList[T](f)
}

// ToEntityAsync is the asynchronous form of ToEntity.
func ToEntityAsync[T any](ctx context.Context, s *RetrieveSpec) *async.Future[*T] {
	return async.Map(s.Field(ctx), entity[T])
}

// ToEntityListAsync is the asynchronous form of ToEntityList.
func ToEntityListAsync[T any](ctx context.Context, s *RetrieveSpec) *async.Future[[]T] {
	return async.Map(s.Field(ctx), entityList[T])
}

// ToEntityStream decodes the field of every subscription response. Responses
// where the field is null without errors are skipped.
func ToEntityStream[T any](ctx context.Context, s *RetrieveSubscriptionSpec) *async.Stream[T] {
	return async.Transform(s.Fields(ctx), func(f *ResponseField) (T, bool, error) {
		var zero T
		if !f.HasValue() {
			return zero, false, nil
		}
		v, err := entity[T](f)
		if err != nil {
			return zero, false, err
		}
		return *v, true, nil
	})
}

// ToEntityListStream decodes the list field of every subscription response.
// Responses where the field is null without errors are skipped.
func ToEntityListStream[T any](ctx context.Context, s *RetrieveSubscriptionSpec) *async.Stream[[]T] {
	return async.Transform(s.Fields(ctx), func(f *ResponseField) ([]T, bool, error) {
		if !f.HasValue() {
			return nil, false, nil
		}
		v, err := entityList[T](f)
		return v, err == nil, err
	})
}

func entity[T any](f *ResponseField) (*T, error) {
	if !f.HasValue() {
		return nil, nil
	}
	v, err := decodeValue[T](f.response.dec(), f.Value)
	if err != nil {
		return nil, fmt.Errorf("client: decode field %q: %w", f.Path.String(), err)
	}
	return &v, nil
}

func entityList[T any](f *ResponseField) ([]T, error) {
	if !f.HasValue() {
		return []T{}, nil
	}
	v, err := decodeValue[[]T](f.response.dec(), f.Value)
	if err != nil {
		return nil, fmt.Errorf("client: decode field %q: %w", f.Path.String(), err)
	}
	if v == nil {
		v = []T{}
	}
	return v, nil
}
