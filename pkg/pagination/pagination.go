package pagination

const (
	// DefaultPage is the first page number.
	DefaultPage = 1
	// DefaultPageSize is the standard page size when a size is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any page query can request.
	MaxPageSize = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize applies defaults and caps.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset of the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// TotalPages is ceil(total/pageSize), zero for an empty result.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Page is a slice of results plus the counters the catalog clients render.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles a Page from normalized params.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	n := p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: n.Page,
		PageSize:   n.PageSize,
		TotalPages: TotalPages(total, n.PageSize),
	}
}
