package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/bookly-app/bookly/authz"
)

// guard is shared by every Guarded handler; it is assembled once at
// startup before routes are registered.
var guard = authz.NewGuard(authz.NewGormMemberships())

// SetGuard swaps the guard's membership source. Used by main during
// wiring and by tests to inject fakes.
func SetGuard(g *authz.Guard) {
	guard = g
}

// Guarded enforces a static authz declaration before the handler runs.
// Route params and query values become the guard's named arguments;
// the caller id comes from the JWT locals set by Protected.
func Guarded(decl *authz.Declaration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID, ok := c.Locals("userID").(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No authentication token",
			})
		}

		args := authz.Args{}
		for key, value := range c.AllParams() {
			args[key] = value
		}
		for key, value := range c.Queries() {
			args[key] = value
		}

		if err := guard.Check(c.Context(), callerID, decl, args); err != nil {
			return denied(c, callerID, err)
		}

		return c.Next()
	}
}

// denied maps the authz error taxonomy onto client responses. Clients
// get a stable code and a generic message; the specific missing
// permissions stay in the internal log only.
func denied(c *fiber.Ctx, callerID uint, err error) error {
	var pd *authz.PermissionDeniedError
	switch {
	case errors.Is(err, authz.ErrParameterNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "parameter_not_found",
			"error": "Missing business reference",
		})
	case errors.Is(err, authz.ErrMissingTenantID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "missing_tenant_id",
			"error": "A valid business id is required",
		})
	case errors.Is(err, authz.ErrReferenceNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "reference_not_found",
			"error": "Business reference did not resolve",
		})
	case errors.Is(err, authz.ErrNotAMember):
		log.Warn().Uint("caller_id", callerID).Str("path", c.Path()).
			Msg("Caller has no membership in this business")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":  "not_a_member",
			"error": "You don't have access to this business",
		})
	case errors.As(err, &pd):
		log.Warn().Uint("caller_id", callerID).Str("path", c.Path()).
			Str("role", string(pd.Role)).
			Interface("missing", pd.Missing).
			Interface("want_roles", pd.WantRoles).
			Msg("Permission denied")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":  "permission_denied",
			"error": "You don't have permission to perform this action",
		})
	default:
		log.Error().Err(err).Uint("caller_id", callerID).Msg("Authorization check failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":  "authorization_error",
			"error": "Failed to authorize request",
		})
	}
}
