package validate

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
)

// Page is a keyset pagination request.
type Page struct {
	Limit  int
	Cursor string
}

// Pagination reads the optional limit (1-50, default 20) and ULID cursor.
func Pagination(body map[string]any) (Page, *FieldError) {
	limit, ferr := OptionalIntRange(body, "limit", 1, MaxPageLimit, DefaultPageLimit)
	if ferr != nil {
		return Page{}, ferr
	}
	cursor, ferr := OptionalULID(body, "cursor")
	if ferr != nil {
		return Page{}, ferr
	}
	return Page{Limit: limit, Cursor: cursor}, nil
}

// PageInfo derives hasMore and nextCursor from a fetched page.
//
// hasMore is true whenever the page is full, so a result set whose size is an
// exact multiple of the limit reports one extra, empty page.
// TODO: fetch limit+1 rows once the feed procedures accept an over-fetch.
func PageInfo(rows []map[string]any, limit int) (hasMore bool, nextCursor any) {
	hasMore = len(rows) == limit
	if !hasMore || len(rows) == 0 {
		return hasMore, nil
	}
	if id, ok := rows[len(rows)-1]["id"]; ok {
		return true, id
	}
	return true, nil
}
