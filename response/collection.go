package response

type CollectionResponse[T any] struct {
	Items      []T         `json:"items"`
	Total      int         `json:"total"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func NewCollectionResponse[T any](items []T, pagination *Pagination) CollectionResponse[T] {
	if items == nil {
		items = []T{}
	}

	total := len(items)
	if pagination != nil {
		total = pagination.Total
	}

	return CollectionResponse[T]{
		Items:      items,
		Total:      total,
		Pagination: pagination,
	}
}

// Paginate returns the page of items selected by p and p with its total set.
func Paginate[T any](items []T, p Pagination) ([]T, *Pagination) {
	p.Total = len(items)

	start := min(max(p.Offset, 0), len(items))
	end := len(items)
	if p.Limit > 0 {
		end = min(start+p.Limit, len(items))
	}
	return items[start:end], &p
}
