package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// validateStruct runs tag validation and converts failures into a
// ValidationError keyed by JSON field name.
func validateStruct(v any) *ValidationError {
	out := NewValidationError()

	err := validatorInstance().Struct(v)
	if err == nil {
		return out
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out.Add("_", err.Error())
		return out
	}

	for _, fe := range fieldErrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", label)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "min":
		if fe.Param() == "1" {
			return fmt.Sprintf("The %s field is required.", label)
		}
		return fmt.Sprintf("The %s must be at least %s characters.", label, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
