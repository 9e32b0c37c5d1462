package smartapi

import (
	"bytes"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the wrapper every HTTP response arrives in.
type Envelope[T any] struct {
	Status    bool      `json:"status"`
	Message   string    `json:"message"`
	ErrorCode ErrorCode `json:"errorcode"`
	Data      *T        `json:"data"`
}

// UnmarshalJSON treats a null, missing or empty-string data field as absent.
func (e *Envelope[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Status    bool                `json:"status"`
		Message   string              `json:"message"`
		ErrorCode ErrorCode           `json:"errorcode"`
		Data      jsoniter.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	e.Status = raw.Status
	e.Message = raw.Message
	e.ErrorCode = raw.ErrorCode
	e.Data = nil

	if absentData(raw.Data) {
		return nil
	}
	var data T
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return errors.Wrap(err, "data")
	}
	e.Data = &data
	return nil
}

func absentData(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`))
}

// DecodeEnvelope parses a response body. Failures are marked ErrDecode.
func DecodeEnvelope[T any](body []byte) (*Envelope[T], error) {
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newDecodeError(err, "decode envelope")
	}
	return &env, nil
}

// IntoData returns the payload, failing with ErrMissingData when absent.
func (e *Envelope[T]) IntoData() (T, error) {
	if e == nil || e.Data == nil {
		var zero T
		return zero, errors.WithStack(ErrMissingData)
	}
	return *e.Data, nil
}

// IntoCollection returns the rows of a collection response; absent data is
// an empty result, not an error.
func IntoCollection[T any](e *Envelope[[]T]) []T {
	if e == nil || e.Data == nil {
		return []T{}
	}
	return *e.Data
}
