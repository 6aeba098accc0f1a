// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:now()"`
}

// Enums
type Condition string

const (
	ConditionNew  Condition = "New"
	ConditionUsed Condition = "Used"
)

func (c Condition) Valid() bool {
	return c == ConditionNew || c == ConditionUsed
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Categories is the display set offered by the listing form. The store
// accepts any value.
var Categories = []Category{
	{ID: "Books", Name: "Books & Notes", Icon: "book"},
	{ID: "Electronics", Name: "Electronics", Icon: "laptop"},
	{ID: "Furniture", Name: "Furniture", Icon: "sofa"},
	{ID: "Clothing", Name: "Clothing", Icon: "shirt"},
	{ID: "Sports", Name: "Sports & Fitness", Icon: "ball"},
	{ID: "Stationery", Name: "Stationery", Icon: "pencil"},
	{ID: "Cycles", Name: "Cycles", Icon: "bike"},
	{ID: "Other", Name: "Other", Icon: "tag"},
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}
