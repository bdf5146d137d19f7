// Package pagination implements cursor pages over rows ordered newest first.
//
// Callers fetch limit+1 rows starting at the cursor row. If the extra row
// exists it is dropped from the page and its id becomes the next cursor.
package pagination

import (
	"fmt"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

// Limit parses a limit query value, falling back to def and clamping to [1, max].
func Limit(raw string, def, max int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return Clamp(n, def, max)
}

// Clamp maps n below 1 to def and above max to max.
func Clamp(n, def, max int) int {
	if n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// Paginate trims rows (fetched with limit+1) to a page.
func Paginate[T any](rows []T, limit int, id func(T) string) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	next := id(rows[limit])
	return Page[T]{Items: rows[:limit], NextCursor: &next}
}

// Window returns up to n rows of sorted starting at the row whose id is
// cursor. An unknown cursor yields no rows.
func Window[T any](sorted []T, cursor string, n int, id func(T) string) []T {
	start := 0
	if cursor != "" {
		start = -1
		for i, row := range sorted {
			if id(row) == cursor {
				start = i
				break
			}
		}
		if start < 0 {
			return []T{}
		}
	}
	end := start + n
	if end > len(sorted) {
		end = len(sorted)
	}
	out := make([]T, end-start)
	copy(out, sorted[start:end])
	return out
}

// Keyset is the WHERE fragment selecting rows at or after the cursor row in
// (created_at DESC, id DESC) order. alias names the outer table; arg is the
// placeholder index of the cursor.
func Keyset(table, alias string, arg int) string {
	return fmt.Sprintf(`(%[1]s.created_at, %[1]s.id) <= (SELECT c.created_at, c.id FROM %[2]s c WHERE c.id = $%[3]d)`, alias, table, arg)
}
