package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds request bodies; edge payloads are small command envelopes.
const MaxBodyBytes = 1 << 20

var ErrMalformedBody = errors.New("malformed JSON body")

// DecodeBody reads a JSON object from r. Numbers are kept as json.Number so
// integer validation does not go through float64.
//
// Anything that is not a single JSON object is ErrMalformedBody.
func DecodeBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return nil, ErrMalformedBody
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) > MaxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedBody, MaxBodyBytes)
	}

	if !json.Valid(raw) {
		return nil, ErrMalformedBody
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if body == nil {
		return nil, ErrMalformedBody
	}
	return body, nil
}
