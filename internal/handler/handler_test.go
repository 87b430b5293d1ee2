package handler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shopadmin/internal/middleware"
	"shopadmin/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type stubPermissionSource struct {
	roles map[string][]string
}

func (s *stubPermissionSource) PermissionSlugsByRole(_ context.Context, roleSlug string) ([]string, error) {
	slugs, ok := s.roles[roleSlug]
	if !ok {
		return nil, fmt.Errorf("role %q: %w", roleSlug, permission.ErrUnknownRole)
	}
	return slugs, nil
}

func newTestGuard(roles map[string][]string) *middleware.Guard {
	registry := permission.NewRegistry(&stubPermissionSource{roles: roles}, time.Minute)
	return middleware.NewGuard(testSecret, registry, false)
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestRouter(register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r.Group("/"))
	return r
}
