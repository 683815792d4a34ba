package grpctp

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hanpama/gqlclient/internal/graphql"
)

// Requests and responses travel as google.protobuf.Struct holding their JSON
// map form.

func encodeRequest(req *graphql.Request) (*structpb.Struct, error) {
	b, err := req.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return toStruct(b)
}

func decodeRequest(s *structpb.Struct) (*graphql.Request, error) {
	b, err := protojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var req graphql.Request
	if err := req.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return &req, nil
}

func encodeResponse(resp *graphql.Response) (*structpb.Struct, error) {
	b, err := graphql.JSON.Marshal(resp.ToMap())
	if err != nil {
		return nil, err
	}
	return toStruct(b)
}

func decodeResponse(s *structpb.Struct) (*graphql.Response, error) {
	b, err := protojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	return graphql.DecodeResponse(b)
}

func toStruct(b []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}
