// Package model contains the core domain types shared across the application.
package model

// Category is one of the three fixed buckets a user sorts items into.
// Each category owns a closed rating band; bands are defined in the
// rating package.
type Category string

// The fixed category enumeration. Values are stable identifiers used in
// storage and over the wire.
const (
	CategoryLiked    Category = "liked"
	CategoryFine     Category = "fine"
	CategoryDisliked Category = "disliked"
)

// Categories returns all valid categories in band order, best first.
func Categories() []Category {
	return []Category{CategoryLiked, CategoryFine, CategoryDisliked}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLiked, CategoryFine, CategoryDisliked:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}
