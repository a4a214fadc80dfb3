package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Favorite links a user to a pizza from the menu service. PizzaData is the
// menu payload snapshot the frontend rendered when the favorite was added, so
// the list endpoint can serve it back without a menu lookup.
type Favorite struct {
	gorm.Model
	UserID    uint           `json:"userID" gorm:"index:idx_fav_user_pizza,unique;not null"`
	PizzaID   string         `json:"pizzaID" gorm:"index:idx_fav_user_pizza,unique;not null"`
	PizzaData datatypes.JSON `json:"pizzaData"`
}
