package pipeline

import "github.com/jordanlanch/realtycrm/pkg/models"

// Group partitions items into one bucket per column id, keeping the input
// order inside each bucket. Every column id is present in the result, and
// items whose status matches no column are left out.
func Group[T any](items []T, cols []Column, statusOf func(T) string) map[string][]T {
	buckets := make(map[string][]T, len(cols))
	for _, col := range cols {
		buckets[col.ID] = []T{}
	}
	for _, item := range items {
		status := statusOf(item)
		if _, ok := buckets[status]; ok {
			buckets[status] = append(buckets[status], item)
		}
	}
	return buckets
}

// Board groups items by the kind's columns and renders them in column order
func Board[T any](kind Kind, items []T, statusOf func(T) string) models.BoardResponse {
	cat := CatalogFor(kind)
	if cat == nil {
		return models.BoardResponse{Kind: string(kind), Columns: []models.BoardColumn{}}
	}

	buckets := Group(items, cat.Columns, statusOf)
	out := models.BoardResponse{Kind: string(kind), Columns: make([]models.BoardColumn, 0, len(cat.Columns))}
	for _, col := range cat.Columns {
		bucket := buckets[col.ID]
		boxed := make([]any, len(bucket))
		for i, item := range bucket {
			boxed[i] = item
		}
		out.Columns = append(out.Columns, models.BoardColumn{
			ID:    col.ID,
			Label: col.Label,
			Color: col.Color,
			Count: len(bucket),
			Items: boxed,
		})
	}
	return out
}
