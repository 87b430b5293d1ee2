package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopadmin/internal/permission"
)

const testSecret = "test-secret"

type fakeSource struct {
	roles map[string][]string
}

func (f *fakeSource) PermissionSlugsByRole(_ context.Context, roleSlug string) ([]string, error) {
	slugs, ok := f.roles[roleSlug]
	if !ok {
		return nil, fmt.Errorf("role %q: %w", roleSlug, permission.ErrUnknownRole)
	}
	return slugs, nil
}

func newTestGuard(roles map[string][]string) *Guard {
	registry := permission.NewRegistry(&fakeSource{roles: roles}, time.Minute)
	return NewGuard(testSecret, registry, false)
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

func protectedRouter(mw gin.HandlerFunc, reached *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", mw, func(c *gin.Context) {
		*reached = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireAuthWithoutToken(t *testing.T) {
	guard := newTestGuard(nil)
	reached := false
	r := protectedRouter(guard.RequireAuth(), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached, "protected handler must never run unauthenticated")
}

func TestRequireAuthWithInvalidToken(t *testing.T) {
	guard := newTestGuard(nil)
	reached := false
	r := protectedRouter(guard.RequireAuth(), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestRequireAuthWithValidToken(t *testing.T) {
	guard := newTestGuard(nil)
	reached := false
	r := protectedRouter(guard.RequireAuth(), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", "staff"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestRequireAuthAcceptsCookie(t *testing.T) {
	guard := newTestGuard(nil)
	reached := false
	r := protectedRouter(guard.RequireAuth(), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, "u-1", "staff")})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestRequirePermissionDenied(t *testing.T) {
	// Role only holds view-products; the guard wants edit-products.
	guard := newTestGuard(map[string][]string{"staff": {"view-products"}})
	reached := false
	r := protectedRouter(guard.RequirePermission("edit-products"), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", "staff"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached, "a lacking permission must block rendering, not just warn")
}

func TestRequirePermissionAllowed(t *testing.T) {
	guard := newTestGuard(map[string][]string{"staff": {"view-products"}})
	reached := false
	r := protectedRouter(guard.RequirePermission("view-products"), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", "staff"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestRequireAnyAndAll(t *testing.T) {
	guard := newTestGuard(map[string][]string{"staff": {"view-products", "view-customers"}})

	cases := []struct {
		name string
		mw   gin.HandlerFunc
		want int
	}{
		{"any with one match", guard.RequireAny("edit-products", "view-products"), http.StatusOK},
		{"any with no match", guard.RequireAny("edit-products", "delete-products"), http.StatusForbidden},
		{"all held", guard.RequireAll("view-products", "view-customers"), http.StatusOK},
		{"all with one missing", guard.RequireAll("view-products", "edit-products"), http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			r := protectedRouter(tc.mw, &reached)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", "staff"))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, tc.want == http.StatusOK, reached)
		})
	}
}

func TestUnknownRoleIsDenied(t *testing.T) {
	guard := newTestGuard(map[string][]string{})
	reached := false
	r := protectedRouter(guard.RequirePermission("view-products"), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", "ghost"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}
