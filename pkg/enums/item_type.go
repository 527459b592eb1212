package enums

import "fmt"

// ItemType distinguishes the two sellable catalog kinds a cart line can reference.
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypePet     ItemType = "pet"
)

var validItemTypes = []ItemType{
	ItemTypeProduct,
	ItemTypePet,
}

// String implements fmt.Stringer.
func (i ItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemType.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into an ItemType.
func ParseItemType(value string) (ItemType, error) {
	for _, candidate := range validItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
