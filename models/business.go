package models

import (
	"gorm.io/gorm"
)

// Business is the tenant: an independent organization whose staff and
// appointments are isolated from every other business.
type Business struct {
	gorm.Model
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Email       string       `json:"email"`
	PhoneNumber string       `json:"phone_number"`
	Address     string       `json:"address"`
	TimeZone    string       `json:"time_zone"`
	OwnerID     uint         `json:"owner_id"`
	Owner       User         `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Memberships []Membership `json:"memberships,omitempty" gorm:"foreignKey:BusinessID"`
}
