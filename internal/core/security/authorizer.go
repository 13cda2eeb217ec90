// Package security provides the capability check consumed by domain services.
// Authentication happens upstream; this package only answers "may the caller
// in ctx perform action on this resource".
package security

import (
	"context"
	"fmt"
	"slices"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
)

// Action names a guarded operation.
type Action string

const (
	ActionPacklistCreate        Action = "packlist.create"
	ActionPacklistStartSelling  Action = "packlist.start_selling"
	ActionPacklistFinishSelling Action = "packlist.finish_selling"
	ActionPacklistComplete      Action = "packlist.complete"
	ActionOrderCreate           Action = "order.create"
	ActionOrderRequestCheck     Action = "order.request_check"
	ActionOrderConfirm          Action = "order.confirm"
	ActionStockEdit             Action = "stock.edit"
	ActionProductManage         Action = "product.manage"
)

// Resource carries the attributes of the aggregate an action targets.
type Resource struct {
	// AssignedUserIDs restricts worker actions to the listed users.
	// Empty means the resource is not assignment-scoped.
	AssignedUserIDs []string
}

// Authorizer decides capabilities. A denial is an apperror Forbidden.
type Authorizer interface {
	Authorize(ctx context.Context, action Action, res Resource) error
}

// RolePolicy maps actions to the roles allowed to run them.
type RolePolicy map[Action][]string

// DefaultRolePolicy: admins own the catalog, stock and settlement;
// workers run the selling floor and receive goods.
func DefaultRolePolicy() RolePolicy {
	admin := []string{appctx.RoleAdmin}
	floor := []string{appctx.RoleAdmin, appctx.RoleWorker}
	return RolePolicy{
		ActionPacklistCreate:        admin,
		ActionPacklistStartSelling:  floor,
		ActionPacklistFinishSelling: floor,
		ActionPacklistComplete:      admin,
		ActionOrderCreate:           admin,
		ActionOrderRequestCheck:     floor,
		ActionOrderConfirm:          floor,
		ActionStockEdit:             admin,
		ActionProductManage:         admin,
	}
}

// RoleAuthorizer is the Authorizer backed by the caller's roles.
type RoleAuthorizer struct {
	policy RolePolicy
}

// NewRoleAuthorizer creates a RoleAuthorizer. A nil policy uses DefaultRolePolicy.
func NewRoleAuthorizer(policy RolePolicy) *RoleAuthorizer {
	if policy == nil {
		policy = DefaultRolePolicy()
	}
	return &RoleAuthorizer{policy: policy}
}

// Authorize implements Authorizer.
func (a *RoleAuthorizer) Authorize(ctx context.Context, action Action, res Resource) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if user.IsAdmin {
		return nil
	}

	allowed := slices.ContainsFunc(a.policy[action], user.HasRole)
	if !allowed {
		return apperror.NewForbidden(fmt.Sprintf("not allowed to %s", action)).
			WithDetail("action", string(action))
	}

	if len(res.AssignedUserIDs) > 0 && !slices.Contains(res.AssignedUserIDs, user.UserID) {
		return apperror.NewForbidden("not assigned to this resource").
			WithDetail("action", string(action))
	}
	return nil
}

// AllowAll grants every action. Use for system jobs and tests.
type AllowAll struct{}

// Authorize implements Authorizer.
func (AllowAll) Authorize(context.Context, Action, Resource) error { return nil }
