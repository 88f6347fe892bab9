package pagination

import (
	"cmp"
	"slices"
	"strings"
)

// Page is the envelope returned by every list endpoint.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Paginate slices items into a page. limit is clamped to [1, maxLimit]
// (no ceiling when maxLimit <= 0) and offset to [0, len(items)].
func Paginate[T any](items []T, limit, offset, maxLimit int) Page[T] {
	total := len(items)

	if limit < 1 {
		limit = 1
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	offset = min(max(offset, 0), total)

	end := min(offset+limit, total)
	page := make([]T, end-offset)
	copy(page, items[offset:end])

	return Page[T]{
		Items:   page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(page) < total,
	}
}

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder maps a query value to an Order. Anything other than "asc"
// sorts descending.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// Key is a comparable sort key, either textual or numeric.
type Key struct {
	str     string
	num     int64
	numeric bool
}

func StringKey(s string) Key { return Key{str: s} }

func IntKey(n int64) Key { return Key{num: n, numeric: true} }

// Compare orders numeric keys before textual ones; text compares
// case-insensitively.
func (k Key) Compare(o Key) int {
	switch {
	case k.numeric && o.numeric:
		return cmp.Compare(k.num, o.num)
	case k.numeric:
		return -1
	case o.numeric:
		return 1
	}
	if c := cmp.Compare(strings.ToLower(k.str), strings.ToLower(o.str)); c != 0 {
		return c
	}
	return cmp.Compare(k.str, o.str)
}

// Sortable is implemented by entities that expose named sort fields.
type Sortable interface {
	SortKey(field string) (Key, bool)
}

// SortBy returns a stably sorted copy of items. An empty or unknown
// field keeps the natural order.
func SortBy[T Sortable](items []T, field string, order Order) []T {
	out := slices.Clone(items)
	if field == "" || len(out) == 0 {
		return out
	}
	if _, ok := out[0].SortKey(field); !ok {
		return out
	}

	slices.SortStableFunc(out, func(a, b T) int {
		ka, _ := a.SortKey(field)
		kb, _ := b.SortKey(field)
		if order == Asc {
			return ka.Compare(kb)
		}
		return kb.Compare(ka)
	})
	return out
}
