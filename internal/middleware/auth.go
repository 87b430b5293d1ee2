package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"shopadmin/internal/permission"
	"shopadmin/pkg/response"
)

const identityKey = "identity"

// Identity is the authenticated caller injected into the request context.
type Identity struct {
	UserID string
	Role   string
}

// IdentityFrom extracts the authenticated caller from the request context.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}

// Guard gates protected routes. A request passes only when the token is
// valid AND the configured permission predicate holds; on failure the
// protected handler is never reached.
type Guard struct {
	secret        []byte
	registry      *permission.Registry
	secureCookies bool
}

// NewGuard builds a guard over the permission registry.
func NewGuard(secret string, registry *permission.Registry, secureCookies bool) *Guard {
	return &Guard{secret: []byte(secret), registry: registry, secureCookies: secureCookies}
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func (g *Guard) SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	sameSite := http.SameSiteLaxMode
	if g.secureCookies {
		sameSite = http.SameSiteNoneMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", g.secureCookies, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", g.secureCookies, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func (g *Guard) ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	if g.secureCookies {
		sameSite = http.SameSiteNoneMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", g.secureCookies, true)
	c.SetCookie("refresh_token", "", -1, "/", "", g.secureCookies, true)
}

// RequireAuth validates the JWT and injects the caller identity. Missing or
// invalid tokens clear the auth cookies and abort with 401.
func (g *Guard) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequirePermission passes only when the caller's role holds slug.
func (g *Guard) RequirePermission(slug string) gin.HandlerFunc {
	return g.requirePredicate(func(set permission.Set) (bool, string) {
		return set.Has(slug), slug
	})
}

// RequireAny passes when the caller's role holds at least one of slugs.
func (g *Guard) RequireAny(slugs ...string) gin.HandlerFunc {
	return g.requirePredicate(func(set permission.Set) (bool, string) {
		return set.HasAny(slugs...), strings.Join(slugs, "|")
	})
}

// RequireAll passes only when the caller's role holds every slug.
func (g *Guard) RequireAll(slugs ...string) gin.HandlerFunc {
	return g.requirePredicate(func(set permission.Set) (bool, string) {
		return set.HasAll(slugs...), strings.Join(slugs, "+")
	})
}

func (g *Guard) requirePredicate(check func(permission.Set) (bool, string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := g.authenticate(c)
		if !ok {
			return
		}

		set, err := g.registry.Resolve(c.Request.Context(), id.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error("Failed to verify permissions"))
			return
		}

		if pass, wanted := check(set); !pass {
			c.AbortWithStatusJSON(http.StatusForbidden,
				response.Error("Access denied: missing permission '"+wanted+"'"))
			return
		}

		c.Next()
	}
}

// authenticate extracts and validates the token, injecting the identity on
// success. On failure it aborts with 401 and reports false.
func (g *Guard) authenticate(c *gin.Context) (*Identity, bool) {
	if id, ok := IdentityFrom(c); ok {
		return id, true
	}

	tokenString := g.extractToken(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return nil, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		g.ClearTokenCookies(c)
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token"))
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		g.ClearTokenCookies(c)
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token claims"))
		return nil, false
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		g.ClearTokenCookies(c)
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token claims"))
		return nil, false
	}

	id := &Identity{UserID: sub, Role: role}
	c.Set(identityKey, id)
	return id, true
}

// extractToken tries the auth cookie first, then the Authorization header.
func (g *Guard) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
