package constants

import "strings"

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryStudy    Category = "study"
	CategoryHealth   Category = "health"
	CategoryShopping Category = "shopping"
	CategoryOther    Category = "other"
)

type categoryInfo struct {
	name, icon, color string
}

var categoryMeta = map[Category]categoryInfo{
	CategoryWork:     {"Work", "💼", "#2196F3"},
	CategoryPersonal: {"Personal", "🏠", "#9C27B0"},
	CategoryStudy:    {"Study", "📚", "#FF9800"},
	CategoryHealth:   {"Health", "💪", "#4CAF50"},
	CategoryShopping: {"Shopping", "🛒", "#E91E63"},
	CategoryOther:    {"Other", "📌", "#607D8B"},
}

// Categories lists every category in display order.
var Categories = []Category{
	CategoryWork, CategoryPersonal, CategoryStudy, CategoryHealth, CategoryShopping, CategoryOther,
}

// ParseCategory maps unknown values to CategoryPersonal.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryMeta[c]; ok {
		return c
	}
	return CategoryPersonal
}

func (c Category) DisplayName() string { return categoryMeta[ParseCategory(string(c))].name }
func (c Category) Icon() string        { return categoryMeta[ParseCategory(string(c))].icon }
func (c Category) ColorHex() string    { return categoryMeta[ParseCategory(string(c))].color }

func (c Category) MarshalText() ([]byte, error) {
	return []byte(ParseCategory(string(c))), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}
