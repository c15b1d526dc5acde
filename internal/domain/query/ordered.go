package query

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrMissingIndex is returned by stores that cannot serve an ordered query
// without an index they do not have.
var ErrMissingIndex = errors.New("query: missing index for ordering")

// Fetch runs one query; ordered asks the store to order server-side.
type Fetch[T any] func(ctx context.Context, ordered bool) ([]T, error)

// NewestFirst asks the store for rows ordered by key desc. Only when the
// store reports ErrMissingIndex does it refetch unordered and sort in memory
// by the same key; any other error is returned as is.
func NewestFirst[T any](ctx context.Context, fetch Fetch[T], key func(T) time.Time) ([]T, error) {
	rows, err := fetch(ctx, true)
	if err == nil {
		return rows, nil
	}
	if !errors.Is(err, ErrMissingIndex) {
		return nil, err
	}
	rows, err = fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rows, func(a, b T) int { return key(b).Compare(key(a)) })
	return rows, nil
}
