package service

import (
	"context"
	"errors"
	"fmt"
)

type pageInfo struct {
	HasNextPage bool `json:"hasNextPage"`
}

// collectionSegment is one offset page of a List API collection.
type collectionSegment[T any] struct {
	Items      []T      `json:"items"`
	PageInfo   pageInfo `json:"pageInfo"`
	TotalCount int      `json:"totalCount"`
}

type pageFetcher[T any] func(ctx context.Context, skip, take int) (*collectionSegment[T], error)

// fetchAll reads pages of take items until the upstream reports no next
// page or returns an empty page. skip advances by the number of items
// actually received. More than maxPages pages (when positive) is an error.
func fetchAll[T any](ctx context.Context, query string, take, maxPages int, fetch pageFetcher[T]) ([]T, error) {
	var all []T
	skip := 0

	for page := 0; ; page++ {
		if maxPages > 0 && page >= maxPages {
			return nil, &UpstreamError{
				Query: query,
				Skip:  skip,
				Err:   fmt.Errorf("%w: more than %d pages of %d items", errPageLimit, maxPages, take),
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, &UpstreamError{Query: query, Skip: skip, Err: err}
		}

		segment, err := fetch(ctx, skip, take)
		if err != nil {
			var upstreamErr *UpstreamError
			if errors.As(err, &upstreamErr) {
				return nil, err
			}
			return nil, &UpstreamError{Query: query, Skip: skip, Err: err}
		}
		if segment == nil {
			return nil, &UpstreamError{Query: query, Skip: skip, Err: errMissingSegment}
		}

		upstreamPagesFetched.WithLabelValues(query).Inc()
		all = append(all, segment.Items...)

		if !segment.PageInfo.HasNextPage || len(segment.Items) == 0 {
			return all, nil
		}
		skip += len(segment.Items)
	}
}
