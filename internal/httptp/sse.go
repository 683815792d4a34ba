package httptp

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/r3labs/sse/v2"

	"github.com/hanpama/gqlclient/internal/graphql"
)

var (
	headerData  = []byte("data:")
	headerEvent = []byte("event:")
)

// readEvents decodes "next" events until "complete" or the end of body.
// Events without a name are treated as "next".
func readEvents(body io.Reader, maxSize int, emit func(*graphql.Response) error) error {
	reader := sse.NewEventStreamReader(body, maxSize)
	for {
		raw, err := reader.ReadEvent()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		name, data := parseEvent(raw)
		switch name {
		case "complete":
			return nil
		case "next", "":
			if len(data) == 0 {
				continue
			}
			resp, err := graphql.DecodeResponse(data)
			if err != nil {
				return fmt.Errorf("httptp: decode event: %w", err)
			}
			if err := emit(resp); err != nil {
				return err
			}
		}
	}
}

func parseEvent(raw []byte) (name string, data []byte) {
	seen := false
	for _, line := range bytes.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' }) {
		switch {
		case bytes.HasPrefix(line, headerEvent):
			name = string(bytes.TrimSpace(line[len(headerEvent):]))
		case bytes.HasPrefix(line, headerData):
			if seen {
				data = append(data, '\n')
			}
			seen = true
			data = append(data, bytes.TrimPrefix(line[len(headerData):], []byte(" "))...)
		}
	}
	return name, data
}
