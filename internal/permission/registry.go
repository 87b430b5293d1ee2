// Package permission caches the server-resolved role → permission mapping
// and answers capability queries. It never encodes role logic itself; slugs
// are opaque strings agreed with the dashboard.
package permission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"shopadmin/pkg/logger"
)

// ErrUnknownRole marks a role slug with no stored definition. Sources wrap
// their not-found errors with it.
var ErrUnknownRole = errors.New("permission: unknown role")

// DefaultTTL bounds how long a resolved permission set may be served before
// a re-fetch.
const DefaultTTL = 5 * time.Minute

const cacheSize = 256

// Source resolves a role slug into its permission slugs.
type Source interface {
	PermissionSlugsByRole(ctx context.Context, roleSlug string) ([]string, error)
}

// Set is a resolved permission set supporting membership queries.
type Set map[string]struct{}

// NewSet builds a Set from slugs.
func NewSet(slugs ...string) Set {
	s := make(Set, len(slugs))
	for _, slug := range slugs {
		s[slug] = struct{}{}
	}
	return s
}

// Has reports whether slug is in the set.
func (s Set) Has(slug string) bool {
	_, ok := s[slug]
	return ok
}

// HasAny reports whether at least one slug is in the set.
func (s Set) HasAny(slugs ...string) bool {
	for _, slug := range slugs {
		if s.Has(slug) {
			return true
		}
	}
	return false
}

// HasAll reports whether every slug is in the set.
func (s Set) HasAll(slugs ...string) bool {
	for _, slug := range slugs {
		if !s.Has(slug) {
			return false
		}
	}
	return true
}

// Slugs returns the set members as a slice.
func (s Set) Slugs() []string {
	out := make([]string, 0, len(s))
	for slug := range s {
		out = append(out, slug)
	}
	return out
}

// Registry is the cache + membership evaluator. It is safe for concurrent
// readers; mutation happens only through Invalidate on role edits, never by
// polling.
type Registry struct {
	src   Source
	cache *expirable.LRU[string, Set]
	log   zerolog.Logger
}

// NewRegistry builds a registry over src with the given cache TTL.
func NewRegistry(src Source, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		src:   src,
		cache: expirable.NewLRU[string, Set](cacheSize, nil, ttl),
		log:   logger.Get(),
	}
}

// Resolve returns the permission set for a role, serving from cache when
// fresh. A role without a stored definition resolves to the empty set with a
// warning; storage failures propagate so guards can fail closed.
func (r *Registry) Resolve(ctx context.Context, roleSlug string) (Set, error) {
	if set, ok := r.cache.Get(roleSlug); ok {
		return set, nil
	}
	return r.Fetch(ctx, roleSlug)
}

// Fetch bypasses the cache, resolves the role from the source and replaces
// the cached set.
func (r *Registry) Fetch(ctx context.Context, roleSlug string) (Set, error) {
	slugs, err := r.src.PermissionSlugsByRole(ctx, roleSlug)
	if errors.Is(err, ErrUnknownRole) {
		r.log.Warn().Str("role", roleSlug).Msg("role has no resolvable permissions")
		set := NewSet()
		r.cache.Add(roleSlug, set)
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("permission: fetch for role %q: %w", roleSlug, err)
	}

	set := NewSet(slugs...)
	r.cache.Add(roleSlug, set)
	return set, nil
}

// Invalidate drops the cached set for one role; the next Resolve re-fetches.
func (r *Registry) Invalidate(roleSlug string) {
	r.cache.Remove(roleSlug)
}

// InvalidateAll drops every cached set.
func (r *Registry) InvalidateAll() {
	r.cache.Purge()
}
