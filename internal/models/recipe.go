package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title        string          `json:"title" gorm:"not null"`
	Description  string          `json:"description" gorm:"type:text;not null"`
	PhotoURL     string          `json:"photo_url"`
	ViewCount    int64           `json:"view_count" gorm:"default:0"`
	CookingTime  int             `json:"cooking_time" gorm:"default:0"`
	UserID       uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	CategoryID   *uuid.UUID      `json:"category_id" gorm:"type:uuid;index"`
	Instructions json.RawMessage `json:"instructions" gorm:"type:jsonb"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	User        User               `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Category    *Category          `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Ingredients []RecipeIngredient `json:"ingredients,omitempty" gorm:"foreignKey:RecipeID"`
	Comments    []Comment          `json:"comments,omitempty" gorm:"foreignKey:RecipeID"`
	Likes       []Like             `json:"likes,omitempty" gorm:"foreignKey:RecipeID"`
}

type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Recipes []Recipe `json:"recipes,omitempty" gorm:"foreignKey:CategoryID"`
}

// Ingredient is a global deduplicated catalog; identity is the name.
type Ingredient struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecipeIngredient is the pivot row between a recipe and a catalog
// ingredient, carrying the free-text measurement for the pair.
type RecipeIngredient struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RecipeID     uuid.UUID `json:"recipe_id" gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uuid.UUID `json:"ingredient_id" gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient"`
	Measurement  string    `json:"measurement" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Ingredient Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID"`
}

// IngredientPair is the (name, measurement) input shape used by recipe
// create and update.
type IngredientPair struct {
	Name        string `json:"name" binding:"required" validate:"required"`
	Measurement string `json:"measurement" binding:"required" validate:"required"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RecipeID  uuid.UUID `json:"recipe_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Recipe Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
}

// Like existence is the sole liked signal; counts are derived on read.
type Like struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_user_recipe"`
	RecipeID  uuid.UUID `json:"recipe_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_user_recipe"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Recipe Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
}

func (Recipe) TableName() string {
	return "recipes"
}

func (Category) TableName() string {
	return "categories"
}

func (Ingredient) TableName() string {
	return "ingredients"
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

func (Comment) TableName() string {
	return "comments"
}

func (Like) TableName() string {
	return "likes"
}
