package pagination

const (
	// DefaultPageSize is the flowzz listing page size used when none is configured.
	DefaultPageSize = 25
	// MaxPageSize caps how many items one listing request may ask for.
	MaxPageSize = 100
)

// Meta mirrors the `meta.pagination` block of a flowzz listing response.
type Meta struct {
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
}

// NormalizePageSize enforces the default and maximum page sizes.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Resolve fills in a missing page count with the requested page, so an
// upstream that omits the block ends pagination instead of looping.
func (m Meta) Resolve(requested int) Meta {
	out := m
	if out.Page <= 0 {
		out.Page = requested
	}
	if out.PageCount <= 0 {
		out.PageCount = requested
	}
	return out
}

// Done reports whether `current` is the last page according to the meta.
func (m Meta) Done(current int) bool {
	return current >= m.PageCount
}
