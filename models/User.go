package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Name        string `json:"name"`
	Email       string `json:"email" gorm:"uniqueIndex"`
	Password    string `json:"-"`
	Phone       string `json:"phone"`
	Bio         string `json:"bio"`
	Address     string `json:"address"`
	City        string `json:"city"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Role        string `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin, super_admin
}
