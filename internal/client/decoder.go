package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decoder converts document-shaped values (maps, slices and scalars as
// produced by JSON decoding) into Go values. target is always a non-nil
// pointer to a zero value.
type Decoder interface {
	Decode(value any, target any) error
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(value any, target any) error

func (f DecoderFunc) Decode(value any, target any) error { return f(value, target) }

// MapstructureDecoder decodes with mapstructure using `json` struct tags.
// RFC 3339 strings decode into time.Time and duration strings into
// time.Duration. Numbers decode into integer fields only when they are whole
// and in range for the field.
type MapstructureDecoder struct {
	// ErrorUnused rejects input keys that have no matching struct field.
	ErrorUnused bool
}

func (d MapstructureDecoder) Decode(value any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      target,
		ErrorUnused: d.ErrorUnused,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			numberHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(value)
}

// numberHookFunc converts json.Number and float64 values for numeric
// targets. Fractions and out of range values fail instead of truncating.
func numberHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		var num string
		switch v := data.(type) {
		case json.Number:
			num = v.String()
		case float64:
			num = strconv.FormatFloat(v, 'g', -1, 64)
		default:
			return data, nil
		}
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i, err := strconv.ParseInt(integerText(num), 10, to.Bits())
			if err != nil {
				return nil, numberError(num, to, err)
			}
			return i, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if strings.HasPrefix(num, "-") {
				return nil, numberError(num, to, strconv.ErrRange)
			}
			u, err := strconv.ParseUint(integerText(num), 10, to.Bits())
			if err != nil {
				return nil, numberError(num, to, err)
			}
			return u, nil
		case reflect.Float32, reflect.Float64:
			f, err := strconv.ParseFloat(num, to.Bits())
			if err != nil {
				return nil, numberError(num, to, err)
			}
			return f, nil
		}
		return data, nil
	}
}

// integerText rewrites whole numbers written with a fraction or exponent
// ("2.0", "1e3") as plain integers. Anything else is returned unchanged.
func integerText(num string) string {
	if !strings.ContainsAny(num, ".eE") {
		return num
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return num
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var errFraction = errors.New("not a whole number")

func numberError(num string, to reflect.Type, err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		err = ne.Err
	}
	if errors.Is(err, strconv.ErrSyntax) {
		err = errFraction
	}
	return fmt.Errorf("client: cannot decode %s into %s: %w", num, to, err)
}

// DefaultDecoder is used by responses that were not produced by a Client.
var DefaultDecoder Decoder = MapstructureDecoder{}

// decodeFresh decodes value into a new instance of target's element type and
// only assigns it to target on success.
func decodeFresh(d Decoder, value any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("client: decode target must be a non-nil pointer, got %T", target)
	}
	fresh := reflect.New(rv.Elem().Type())
	if err := d.Decode(value, fresh.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

func decodeValue[T any](d Decoder, value any) (T, error) {
	var v T
	err := d.Decode(value, &v)
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
