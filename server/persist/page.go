package persist

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Paginate returns the 1-based page of items and the normalized page and
// size. Out-of-range pages are empty, not errors.
func Paginate[T any](items []T, page, size int) ([]T, int, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)
	page = max(page, 1)
	// Compare page counts before multiplying; a huge page would overflow.
	if pages := (len(items) + size - 1) / size; page-1 >= pages {
		return []T{}, page, size
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return items[start:end], page, size
}
