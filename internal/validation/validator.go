// Package validation wraps a shared go-playground validator and reports
// failures as invalid application errors.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/cinestream/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", notBlank)
		validate = v
	})
	return validate
}

// Struct validates s against its `validate` tags.
func Struct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperr.Invalid("%s", formatValidationError(fieldErrs))
	}
	return apperr.Invalid("validation error")
}

func notBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return strings.TrimFunc(fl.Field().String(), unicode.IsSpace) != ""
}

func formatValidationError(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if field == "" {
			field = fe.StructField()
		}
		switch fe.Tag() {
		case "required", "required_with", "notblank":
			parts = append(parts, field+" is required")
		case "min", "gte":
			parts = append(parts, field+" must be at least "+fe.Param())
		case "max", "lte":
			parts = append(parts, field+" must be at most "+fe.Param())
		default:
			parts = append(parts, field+" failed on "+fe.Tag())
		}
	}
	return "validation error: " + strings.Join(parts, "; ")
}
