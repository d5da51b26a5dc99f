package pagination

import (
	"context"
	"encoding/json"
)

// Page is one bounded slice of a larger ordered result set.
// PageNumber is zero-based and len(Items) never exceeds the requested page size.
type Page[T any] struct {
	Items         []T `json:"items"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	PageNumber    int `json:"pageNumber"`
}

// UnmarshalJSON accepts both the native field names and the Spring Data
// names ("content", "number") that some backend endpoints emit.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items         []T  `json:"items"`
		Content       []T  `json:"content"`
		TotalElements int  `json:"totalElements"`
		TotalPages    int  `json:"totalPages"`
		PageNumber    *int `json:"pageNumber"`
		Number        *int `json:"number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Items = raw.Items
	if p.Items == nil {
		p.Items = raw.Content
	}
	p.TotalElements = raw.TotalElements
	p.TotalPages = raw.TotalPages
	switch {
	case raw.PageNumber != nil:
		p.PageNumber = *raw.PageNumber
	case raw.Number != nil:
		p.PageNumber = *raw.Number
	default:
		p.PageNumber = 0
	}
	return nil
}

// IsLast reports whether no page follows this one.
func (p Page[T]) IsLast() bool {
	return p.PageNumber+1 >= p.TotalPages
}

// FetchFunc loads a single page from a data source.
// Implementations must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context, pageNumber, pageSize int) (Page[T], error)
