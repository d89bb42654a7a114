package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// errEmptyBody and friends describe malformed request bodies. They are
// reported as 400 (413 for oversized bodies) with a client-safe message.
var (
	errEmptyBody    = errors.New("request body is empty")
	errTrailingData = errors.New("request body must contain a single JSON object")
)

type decodeError struct {
	status int
	msg    string
	err    error
}

func (e *decodeError) Error() string { return e.msg }
func (e *decodeError) Unwrap() error { return e.err }

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return &decodeError{status: http.StatusBadRequest, msg: errEmptyBody.Error(), err: errEmptyBody}
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var (
			syntaxErr *json.SyntaxError
			typeErr   *json.UnmarshalTypeError
			maxErr    *http.MaxBytesError
		)
		switch {
		case errors.As(err, &maxErr):
			return &decodeError{status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit), err: err}
		case errors.Is(err, io.EOF):
			return &decodeError{status: http.StatusBadRequest, msg: errEmptyBody.Error(), err: err}
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return &decodeError{status: http.StatusBadRequest, msg: "request body is not valid JSON", err: err}
		case errors.As(err, &typeErr):
			return &decodeError{status: http.StatusBadRequest, msg: fmt.Sprintf("field %q has the wrong type", typeErr.Field), err: err}
		default:
			// DisallowUnknownFields reports `json: unknown field "x"`.
			return &decodeError{status: http.StatusBadRequest, msg: err.Error(), err: err}
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &decodeError{status: http.StatusBadRequest, msg: errTrailingData.Error(), err: errTrailingData}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
