package permission

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	roles map[string][]string
	err   error
	calls int
}

func (f *fakeSource) PermissionSlugsByRole(_ context.Context, roleSlug string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	slugs, ok := f.roles[roleSlug]
	if !ok {
		return nil, fmt.Errorf("role %q: %w", roleSlug, ErrUnknownRole)
	}
	return slugs, nil
}

func TestSetMembership(t *testing.T) {
	set := NewSet("view-products", "create-products")

	assert.True(t, set.Has("view-products"))
	assert.False(t, set.Has("edit-products"))

	assert.True(t, set.HasAny("edit-products", "view-products"))
	assert.False(t, set.HasAny("edit-products", "delete-products"))

	assert.True(t, set.HasAll("view-products", "create-products"))
	assert.False(t, set.HasAll("view-products", "edit-products"))

	assert.True(t, NewSet().HasAll(), "vacuous HasAll holds for the empty query")
	assert.False(t, NewSet().HasAny("anything"))
}

func TestResolveCachesPerRole(t *testing.T) {
	src := &fakeSource{roles: map[string][]string{"staff": {"view-products"}}}
	reg := NewRegistry(src, time.Minute)

	set, err := reg.Resolve(context.Background(), "staff")
	require.NoError(t, err)
	assert.True(t, set.Has("view-products"))

	_, err = reg.Resolve(context.Background(), "staff")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second resolve must hit the cache")
}

func TestUnknownRoleResolvesEmpty(t *testing.T) {
	src := &fakeSource{roles: map[string][]string{}}
	reg := NewRegistry(src, time.Minute)

	set, err := reg.Resolve(context.Background(), "ghost")
	require.NoError(t, err, "an unresolvable role is non-fatal")
	assert.Empty(t, set)
	assert.False(t, set.Has("view-products"))
}

func TestStorageFailurePropagates(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	reg := NewRegistry(src, time.Minute)

	_, err := reg.Resolve(context.Background(), "staff")
	assert.Error(t, err)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	src := &fakeSource{roles: map[string][]string{"staff": {"view-products"}}}
	reg := NewRegistry(src, time.Minute)

	_, err := reg.Resolve(context.Background(), "staff")
	require.NoError(t, err)

	src.roles["staff"] = []string{"view-products", "edit-products"}
	reg.Invalidate("staff")

	set, err := reg.Resolve(context.Background(), "staff")
	require.NoError(t, err)
	assert.True(t, set.Has("edit-products"))
	assert.Equal(t, 2, src.calls)
}
