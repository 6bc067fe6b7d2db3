package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"certdocs/internal/http/middleware"
	"certdocs/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login godoc
// @Summary Sign in
// @Description Returns a bearer token and sets it as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService, secureCookie bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return err
		}

		c.Cookie(&fiber.Cookie{
			Name:     middleware.TokenCookie,
			Value:    res.Token,
			Path:     "/",
			Expires:  res.ExpiresAt,
			HTTPOnly: true,
			Secure:   secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(res)
	}
}

// Logout godoc
// @Summary Sign out
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func Logout(secureCookie bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     middleware.TokenCookie,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} errorPayload
// @Router /auth/me [get]
func Me(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		u, err := svc.Me(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}
