package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/rbac"
	"edge-gateway/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresCaller runs procedures as SELECT statements over database/sql (pgx stdlib).
//
// Each call runs in its own transaction. When the context carries verified
// claims, request.jwt.claims and role are set locally first so row-level
// security in the store sees the caller rather than the pool user.
type PostgresCaller struct {
	db     *sql.DB
	schema string
}

func NewPostgresCaller(db *sql.DB, schema string) (*PostgresCaller, error) {
	if db == nil {
		return nil, errors.New("rpc: db is nil")
	}
	if schema == "" {
		schema = "public"
	}
	if !identPattern.MatchString(schema) {
		return nil, fmt.Errorf("rpc: invalid schema %q", schema)
	}
	return &PostgresCaller{db: db, schema: schema}, nil
}

const scopeQuery = `SELECT set_config('request.jwt.claims', $1, true), set_config('role', $2, true)`

// buildCall renders the SELECT for name(params). Parameter names are sorted so
// the statement text is stable.
func (p *PostgresCaller) buildCall(name string, params Params) (string, []any, error) {
	if !identPattern.MatchString(name) {
		return "", nil, fmt.Errorf("rpc: invalid procedure name %q", name)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		if !identPattern.MatchString(k) {
			return "", nil, fmt.Errorf("rpc: invalid parameter name %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	named := make([]string, 0, len(keys))
	for i, k := range keys {
		v, cast, err := toSQLArg(params[k])
		if err != nil {
			return "", nil, fmt.Errorf("rpc: parameter %s: %w", k, err)
		}
		args = append(args, v)
		named = append(named, fmt.Sprintf("%s => $%d%s", k, i+1, cast))
	}

	q := fmt.Sprintf(`SELECT to_jsonb(r) FROM %q.%q(%s) AS r`, p.schema, name, strings.Join(named, ", "))
	return q, args, nil
}

// toSQLArg converts a JSON-shaped value to a driver argument and an optional cast.
func toSQLArg(v any) (any, string, error) {
	switch x := v.(type) {
	case nil, string, bool, int, int32, int64, float64:
		return x, "", nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, "", nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, "", err
		}
		return f, "", nil
	case map[string]any, []any, []string:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, "", err
		}
		return string(b), "::jsonb", nil
	default:
		return nil, "", fmt.Errorf("unsupported type %T", v)
	}
}

func (p *PostgresCaller) Call(ctx context.Context, name string, params Params) (Result, error) {
	q, args, err := p.buildCall(name, params)
	if err != nil {
		return Result{}, err
	}

	var rows []json.RawMessage
	err = utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := scope(ctx, tx); err != nil {
			return err
		}
		rs, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rs.Close()
		for rs.Next() {
			var b []byte
			if err := rs.Scan(&b); err != nil {
				return err
			}
			if b == nil {
				rows = append(rows, json.RawMessage("null"))
				continue
			}
			rows = append(rows, json.RawMessage(b))
		}
		return rs.Err()
	})
	if err != nil {
		return Result{}, storeError(name, err)
	}
	return collapse(rows), nil
}

// scope sets the caller's claims and role for the current transaction.
func scope(ctx context.Context, tx *sql.Tx) error {
	claims, ok := auth.ClaimsFrom(ctx)
	if !ok || !rbac.IsKnownRole(claims.Role) {
		return nil
	}
	b, err := claims.JSON()
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	var c1, c2 sql.NullString
	if err := tx.QueryRowContext(ctx, scopeQuery, string(b), claims.Role).Scan(&c1, &c2); err != nil {
		return fmt.Errorf("scope transaction: %w", err)
	}
	return nil
}

// collapse turns per-row JSON into one value: no rows is [], a single
// non-object row is that scalar, anything else is an array.
func collapse(rows []json.RawMessage) Result {
	if len(rows) == 0 {
		return NewResult([]byte("[]"))
	}
	if len(rows) == 1 {
		first := strings.TrimSpace(string(rows[0]))
		if !strings.HasPrefix(first, "{") {
			return NewResult(rows[0])
		}
	}
	b, _ := json.Marshal(rows)
	return NewResult(b)
}

func storeError(name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &Error{Message: pgErr.Message, Code: pgErr.Code, Detail: pgErr.Detail, Hint: pgErr.Hint}
	}
	return fmt.Errorf("rpc %s: %w", name, err)
}
