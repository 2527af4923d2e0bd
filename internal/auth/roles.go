package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// RequireVerified ensures the account completed OTP verification.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("user required")
		}
		if !principal.User.Verified {
			return apperrors.NewForbidden("account not verified")
		}
		return c.Next()
	}
}

// RequireRepairman ensures the caller is a repairman provider.
func RequireRepairman() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.IsRepairman {
			return apperrors.NewForbidden("repairman role required")
		}
		return c.Next()
	}
}

// RequireShopOwner ensures the caller owns a shop.
func RequireShopOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.HasShop {
			return apperrors.NewForbidden("shop owner required")
		}
		return c.Next()
	}
}
