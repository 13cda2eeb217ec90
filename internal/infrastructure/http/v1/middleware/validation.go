package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"retailops/internal/core/apperror"
)

var setupOnce sync.Once

// SetupValidator makes binding errors report JSON field names.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	})
}

// FieldViolation is one failed binding rule.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BindingError converts a gin binding error into a Validation AppError.
// Struct rule failures become per-field violations; anything else (malformed
// JSON, unparsable numbers) is reported as a single error string.
func BindingError(message string, err error) *apperror.AppError {
	appErr := apperror.NewValidation(message)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.WithDetail("error", err.Error())
	}

	violations := make([]FieldViolation, 0, len(verrs))
	for _, e := range verrs {
		violations = append(violations, FieldViolation{
			Field:   fieldPath(e),
			Message: validationMessage(e),
		})
	}
	return appErr.WithDetail("fields", violations)
}

// fieldPath drops the top-level struct name: "items[0].productId".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "datetime":
		return "Must be a date in format " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "min":
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	default:
		return "Invalid value"
	}
}
