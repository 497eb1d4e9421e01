package enums

import "fmt"

// Category is a flowzz listing view. Each category is paginated independently.
type Category string

const (
	CategoryFlowers  Category = "flowers"
	CategoryExtracts Category = "extracts"
)

var validCategories = []Category{
	CategoryFlowers,
	CategoryExtracts,
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Category.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}

// ParseCategories converts a configured list, preserving order.
func ParseCategories(values []string) ([]Category, error) {
	out := make([]Category, 0, len(values))
	for _, v := range values {
		c, err := ParseCategory(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
