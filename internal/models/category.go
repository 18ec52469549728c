package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome    CategoryType = "income"
	CategoryTypeExpense   CategoryType = "expense"
	CategoryTypeAsset     CategoryType = "asset"
	CategoryTypeLiability CategoryType = "liability"
)

// CategoryTypes lists every supported category type.
var CategoryTypes = []CategoryType{
	CategoryTypeIncome, CategoryTypeExpense, CategoryTypeAsset, CategoryTypeLiability,
}

// Valid reports whether t is a supported category type.
func (t CategoryType) Valid() bool {
	for _, v := range CategoryTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TracksAmount reports whether listings of this type carry a summed total.
func (t CategoryType) TracksAmount() bool {
	return t == CategoryTypeExpense || t == CategoryTypeLiability
}

// Category labels transactions and budgets. Exactly one non-deleted
// default category exists per type; defaults are never edited or deleted.
type Category struct {
	Base
	Name        string       `gorm:"not null;index" json:"name"`
	Type        CategoryType `gorm:"not null;index" json:"type"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	Icon        string       `json:"icon"`
	IsDefault   bool         `gorm:"not null;default:false" json:"is_default"`
	IsDeleted   bool         `gorm:"not null;default:false;index" json:"is_deleted"`
}
