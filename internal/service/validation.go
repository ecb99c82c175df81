package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

// NewValidator builds a validator that reports fields by their JSON names,
// so error messages match the wire contract.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// firstViolation renders the first violated rule as a human-readable message.
// Only the first failure is surfaced, not an aggregate.
func firstViolation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "hexcolor":
		return fmt.Sprintf("%s must be a valid hex color", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a zero-padded HH:mm time", fe.Field())
	case "uuid4":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// validationError wraps a validator failure into a typed 400 error carrying
// the first violated rule's message.
func validationError(err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, firstViolation(err))
}

// invalidField builds a typed 400 error for checks outside struct tags.
func invalidField(message string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}
