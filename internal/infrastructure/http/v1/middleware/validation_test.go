package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
)

type lineRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
}

type bindRequest struct {
	Date  string        `json:"date" binding:"required,datetime=2006-01-02"`
	Items []lineRequest `json:"items" binding:"required,min=1,dive"`
}

func bind(t *testing.T, body string) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	SetupValidator()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req bindRequest
	return c.ShouldBindJSON(&req)
}

func TestBindingError_FieldViolations(t *testing.T) {
	err := bind(t, `{"date":"14.03.2026","items":[{"productId":"nope"}]}`)
	require.Error(t, err)

	appErr := BindingError("invalid request body", err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	violations, ok := appErr.Details["fields"].([]FieldViolation)
	require.True(t, ok)
	require.Len(t, violations, 2)
	assert.Equal(t, "date", violations[0].Field)
	assert.Equal(t, "Must be a date in format 2006-01-02", violations[0].Message)
	assert.Equal(t, "items[0].productId", violations[1].Field)
	assert.Equal(t, "Invalid UUID format", violations[1].Message)
}

func TestBindingError_MalformedJSON(t *testing.T) {
	err := bind(t, `{"date":`)
	require.Error(t, err)

	appErr := BindingError("invalid request body", err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "error")
	assert.NotContains(t, appErr.Details, "fields")
}
