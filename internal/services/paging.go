package services

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// clampPage applies the default and maximum page size and floors offset at 0.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
