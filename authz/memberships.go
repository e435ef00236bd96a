package authz

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bookly-app/bookly/db"
	"github.com/bookly-app/bookly/models"
)

// GormMemberships is the database-backed MembershipFinder.
type GormMemberships struct{}

func NewGormMemberships() *GormMemberships {
	return &GormMemberships{}
}

func (r *GormMemberships) FindMembership(ctx context.Context, userID, businessID uint) (*Membership, error) {
	var record models.Membership
	err := db.DB.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return fromModel(&record), nil
}

func (r *GormMemberships) FindMembershipByID(ctx context.Context, membershipID uint) (*Membership, error) {
	var record models.Membership
	err := db.DB.WithContext(ctx).First(&record, membershipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return fromModel(&record), nil
}

func fromModel(record *models.Membership) *Membership {
	overrides := make([]Permission, 0, len(record.Overrides))
	for _, p := range record.Overrides {
		overrides = append(overrides, Permission(p))
	}
	return &Membership{
		ID:         record.ID,
		UserID:     record.UserID,
		BusinessID: record.BusinessID,
		Role:       Role(record.Role),
		Overrides:  overrides,
	}
}
