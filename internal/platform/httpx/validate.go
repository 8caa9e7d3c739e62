package httpx

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Validate runs struct validation and converts the first failure into the
// domain validation error the response mapper understands.
func Validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return shared.Validation("", err.Error())
	}
	fe := fieldErrs[0]
	return shared.Validationf(strings.ToLower(fe.Field()), "failed %q validation", fe.Tag())
}
