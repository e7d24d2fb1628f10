package models

import "github.com/google/uuid"

// assignID fills an empty primary key so inserts do not depend on a database-side uuid default.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every persisted model, in dependency order.
func All() []any {
	return []any{
		&User{},
		&FavoriteRecipe{},
		&MenuPlan{},
		&MenuEntry{},
		&ShoppingList{},
		&ShoppingListItem{},
		&ShareGrant{},
		&PantryItem{},
	}
}

