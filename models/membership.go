package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// PermissionList stores a set of permission names as a JSONB column
type PermissionList []string

// Value implements the driver.Valuer interface
func (p PermissionList) Value() (driver.Value, error) {
	jsonData, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil // Return as string for JSONB type
}

// Scan implements the sql.Scanner interface
func (p *PermissionList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal PermissionList: unsupported type %T", value)
	}

	return json.Unmarshal(data, p)
}

// Membership ties a user to a business with a role and optional
// per-member permission overrides. One membership per (user, business).
type Membership struct {
	gorm.Model
	UserID     uint           `json:"user_id" gorm:"uniqueIndex:idx_member_business"`
	User       User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	BusinessID uint           `json:"business_id" gorm:"uniqueIndex:idx_member_business"`
	Business   Business       `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	Role       string         `json:"role"`
	Overrides  PermissionList `json:"overrides,omitempty" gorm:"type:jsonb"`
}
