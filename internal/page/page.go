package page

type Page[T any] struct {
	// Records are the records found for the page requested.
	Records []T
	// TotalRecords is the total number of records available.
	TotalRecords int
	// TotalPages is the total number of pages based on Size and TotalRecords.
	TotalPages int
	Pagination
}

func New[T any](records []T, pag Pagination, total int) Page[T] {
	return Page[T]{
		Records:      records,
		TotalRecords: total,
		TotalPages:   (total + pag.Size - 1) / pag.Size,
		Pagination:   pag,
	}
}

type Pagination struct {
	// Number is the page number requested, starting at 1.
	Number int
	// Size is the page size requested.
	Size int
}

func NewPagination(pageNumber, pageSize int) Pagination {
	pagination := Pagination{
		Number: 1,
		Size:   25,
	}

	if pageNumber > 0 {
		pagination.Number = pageNumber
	}

	if pageSize > 0 && pageSize <= 1000 {
		pagination.Size = pageSize
	}

	return pagination
}

func (p Pagination) Limit() int {
	return p.Size
}

// Offset converts the one-based page number to a zero-based record offset.
func (p Pagination) Offset() int {
	return (p.Number - 1) * p.Size
}
