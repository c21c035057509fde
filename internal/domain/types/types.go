// Package types contains common types used across the application
package types

// PageRequest selects a zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of items preceding the page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one page of an ordered listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// TotalPages returns the number of pages needed for Total items.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// Slice cuts the requested page out of an already ordered slice.
func Slice[T any](all []T, req PageRequest) Page[T] {
	p := Page[T]{Items: []T{}, Total: len(all), Page: req.Page, Size: req.Size}
	start := req.Offset()
	if start >= len(all) || req.Size <= 0 {
		return p
	}
	end := min(start+req.Size, len(all))
	p.Items = append(p.Items, all[start:end]...)
	return p
}
