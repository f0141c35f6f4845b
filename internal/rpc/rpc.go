// Package rpc calls stored procedures in the data store.
//
// The store is opaque to the edge functions: a procedure name, named
// parameters, and a JSON result or an error whose message is client-safe.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"edge-gateway/internal/httpapi"
	"edge-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Params are named procedure arguments. Values are JSON-shaped: string, bool,
// json.Number, float64, int, nil, map[string]any or []any.
type Params map[string]any

// Caller invokes a stored procedure. Implementations must be safe for concurrent use.
type Caller interface {
	Call(ctx context.Context, name string, params Params) (Result, error)
}

// Error is a failure reported by the store itself (raised exception, constraint
// violation, missing function). Message is passed through to clients.
type Error struct {
	Message string
	Code    string
	Detail  string
	Hint    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (SQLSTATE %s)", e.Message, e.Code)
	}
	return e.Message
}

// Result is the JSON value a procedure returned.
type Result struct {
	raw json.RawMessage
}

// NewResult wraps raw JSON. Empty input is treated as null.
func NewResult(raw []byte) Result {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Result{raw: json.RawMessage("null")}
	}
	return Result{raw: json.RawMessage(raw)}
}

// ResultOf marshals v into a Result. Used by fakes and tests.
func ResultOf(v any) Result {
	b, err := json.Marshal(v)
	if err != nil {
		return NewResult(nil)
	}
	return NewResult(b)
}

func (r Result) Raw() json.RawMessage {
	if r.raw == nil {
		return json.RawMessage("null")
	}
	return r.raw
}

func (r Result) MarshalJSON() ([]byte, error) {
	return r.Raw(), nil
}

// IsEmpty reports whether the procedure returned null or no rows.
func (r Result) IsEmpty() bool {
	switch string(bytes.TrimSpace(r.Raw())) {
	case "null", "[]", "":
		return true
	}
	return false
}

// Decode unmarshals the result into v.
func (r Result) Decode(v any) error {
	dec := json.NewDecoder(bytes.NewReader(r.Raw()))
	dec.UseNumber()
	return dec.Decode(v)
}

// Value returns the result as a generic JSON value.
func (r Result) Value() any {
	var v any
	if err := r.Decode(&v); err != nil {
		return nil
	}
	return v
}

// Rows returns the result as a list of objects. A single object becomes one row;
// null becomes no rows.
func (r Result) Rows() ([]map[string]any, error) {
	switch v := r.Value().(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("rpc: row is %T, not an object", e)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rpc: result is %T, not rows", v)
	}
}

// First returns the first row, whether the result is an object or an array.
func (r Result) First() (map[string]any, bool) {
	rows, err := r.Rows()
	if err != nil || len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

// ErrorMessage returns the client-safe text of a store error, or false for
// transport and programming failures.
func ErrorMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}

// Failure maps a Call error to {"success": false, "error": msg} at 400.
// Errors that did not come from the store are logged and become a 500.
func Failure(ctx context.Context, err error) httpapi.Response {
	return FailureAs(ctx, err, "success")
}

// FailureAs is Failure with a different flag field, e.g. {"found": false, ...}.
func FailureAs(ctx context.Context, err error, flag string) httpapi.Response {
	msg, ok := ErrorMessage(err)
	if !ok {
		logger.From(ctx).Error("rpc call failed", "err", err)
		return httpapi.InternalError()
	}
	if flag == "success" {
		return httpapi.Failure(msg)
	}
	return httpapi.JSON(gin.H{flag: false, "error": msg}, http.StatusBadRequest)
}
