package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bookly-app/bookly/authz"
	"github.com/bookly-app/bookly/db"
	"github.com/bookly-app/bookly/models"
	"github.com/bookly-app/bookly/utils"
)

// CreateBusiness creates a new business and makes the caller its owner
func CreateBusiness(c *fiber.Ctx) error {
	business := new(models.Business)

	if err := c.BodyParser(business); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if business.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Business name is required",
		})
	}

	callerID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "No authentication token",
		})
	}
	business.OwnerID = callerID

	// The creator joins their own business as owner; one transaction so
	// a business never exists without its owner membership.
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&business).Error; err != nil {
			return err
		}
		membership := models.Membership{
			UserID:     callerID,
			BusinessID: business.ID,
			Role:       string(authz.RoleOwner),
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create business",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(business)
}

// AddMember adds a user to a business with a role
func AddMember(c *fiber.Ctx) error {
	type AddMemberInput struct {
		UserID    uint     `json:"user_id"`
		Role      string   `json:"role"`
		Overrides []string `json:"overrides"`
	}

	input := new(AddMemberInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if !authz.KnownRole(authz.Role(input.Role)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown role: " + input.Role,
		})
	}

	businessID, err := c.ParamsInt("business_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid business id",
		})
	}

	// Check if user exists
	var user models.User
	if db.DB.First(&user, input.UserID).RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// One membership per (user, business)
	var existing models.Membership
	if db.DB.Where("user_id = ? AND business_id = ?", input.UserID, businessID).
		First(&existing).RowsAffected > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already a member of this business",
		})
	}

	membership := models.Membership{
		UserID:     input.UserID,
		BusinessID: uint(businessID),
		Role:       input.Role,
		Overrides:  models.PermissionList(input.Overrides),
	}
	if err := db.DB.Create(&membership).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to add member",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(membership)
}

// UpdateMember changes a member's role or permission overrides
func UpdateMember(c *fiber.Ctx) error {
	type UpdateMemberInput struct {
		Role      *string   `json:"role"`
		Overrides *[]string `json:"overrides"`
	}

	input := new(UpdateMemberInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var membership models.Membership
	if err := db.DB.
		Where("id = ? AND business_id = ?", c.Params("member_id"), c.Params("business_id")).
		First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Membership not found",
		})
	}

	if input.Role != nil {
		if !authz.KnownRole(authz.Role(*input.Role)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown role: " + *input.Role,
			})
		}
		membership.Role = *input.Role
	}
	if input.Overrides != nil {
		membership.Overrides = models.PermissionList(*input.Overrides)
	}

	if err := db.DB.Save(&membership).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update member",
			Error:   err.Error(),
		})
	}

	return c.JSON(membership)
}

// RemoveMember removes a user from a business
func RemoveMember(c *fiber.Ctx) error {
	var membership models.Membership
	if err := db.DB.
		Where("id = ? AND business_id = ?", c.Params("member_id"), c.Params("business_id")).
		First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Membership not found",
		})
	}

	if err := db.DB.Delete(&membership).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to remove member",
			Error:   err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetMembers returns all members of a business
func GetMembers(c *fiber.Ctx) error {
	var memberships []models.Membership
	if err := db.DB.Preload("User").
		Where("business_id = ?", c.Params("business_id")).
		Find(&memberships).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch members",
			Error:   err.Error(),
		})
	}

	return c.JSON(memberships)
}
