// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"
)

// Roles understood by the capability check.
const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// UserContext is the authenticated caller of an operation.
// The engine never authenticates; it trusts what the transport put here.
type UserContext struct {
	UserID   string
	TenantID string
	Roles    []string
	IsAdmin  bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasRole reports whether the user carries role. Admins carry every role.
func (u *UserContext) HasRole(role string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	return slices.Contains(u.Roles, role)
}

// HasRole checks if the user in ctx has a specific role.
func HasRole(ctx context.Context, role string) bool {
	return GetUser(ctx).HasRole(role)
}
