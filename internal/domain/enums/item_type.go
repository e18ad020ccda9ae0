package enums

import "strings"

type ItemType string

const (
	ItemTypeRecipe ItemType = "recipe"
	ItemTypeBake   ItemType = "bake"
)

func ParseItemType(raw string) (ItemType, bool) {
	switch ItemType(strings.ToLower(strings.TrimSpace(raw))) {
	case ItemTypeRecipe:
		return ItemTypeRecipe, true
	case ItemTypeBake:
		return ItemTypeBake, true
	default:
		return "", false
	}
}
