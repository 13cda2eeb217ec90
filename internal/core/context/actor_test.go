package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRole(t *testing.T) {
	ctx := context.Background()
	assert.False(t, HasRole(ctx, RoleWorker))

	worker := WithUser(ctx, &UserContext{UserID: "u1", Roles: []string{RoleWorker}})
	assert.True(t, HasRole(worker, RoleWorker))
	assert.False(t, HasRole(worker, RoleAdmin))
	assert.Equal(t, "u1", GetUserID(worker))

	admin := WithUser(ctx, &UserContext{UserID: "a1", IsAdmin: true})
	assert.True(t, HasRole(admin, RoleWorker))
	assert.True(t, HasRole(admin, RoleAdmin))
}

func TestNewTraceContext(t *testing.T) {
	tc := NewTraceContext("", "")
	assert.NotEmpty(t, tc.RequestID)
	assert.Equal(t, tc.RequestID, tc.TraceID)

	tc = NewTraceContext("trace", "req")
	assert.Equal(t, "trace", tc.TraceID)
	assert.Equal(t, "req", tc.RequestID)
}
