package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
)

const (
	// ActorLocalKey holds the authenticated model.Actor in fiber locals.
	ActorLocalKey = "actor"
	// TokenCookie is the cookie the login endpoint sets.
	TokenCookie = "access_token"
)

// Authenticator resolves an access token to an actor.
type Authenticator interface {
	Authenticate(token string) (model.Actor, error)
}

// Authenticate requires a valid token from the Authorization bearer header or
// the access_token cookie and stores the resulting actor in locals.
func Authenticate(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(TokenCookie)
		}
		if token == "" {
			return apperr.Unauthorized("authentication required")
		}

		actor, err := authn.Authenticate(token)
		if err != nil {
			return err
		}
		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetActor returns the actor stored by Authenticate.
func GetActor(c *fiber.Ctx) (model.Actor, bool) {
	actor, ok := c.Locals(ActorLocalKey).(model.Actor)
	return actor, ok
}
