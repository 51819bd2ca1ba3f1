package config

import (
	"errors"

	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("storagekey", func(fl validator.FieldLevel) bool {
		return errs.ValidateStorageKey(fl.Field().String()) == nil
	})
	_ = validate.RegisterValidation("listenaddr", func(fl validator.FieldLevel) bool {
		return errs.ValidateAddr(fl.Field().String()) == nil
	})
}

// formatValidationError turns the first validator failure into a coded
// INVALID_CONFIG error naming the field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid config")
	}
	e := verrs[0]
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: field is required", field)
	case "required_if":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: required when %s", field, e.Param())
	case "oneof":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: %q must be one of: %s", field, e.Value(), e.Param())
	case "gte", "lte":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: %v out of range (%s %s)", field, e.Value(), e.Tag(), e.Param())
	case "storagekey":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: %q is not a valid storage key", field, e.Value())
	case "listenaddr", "hostname_port":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: %q is not a host:port address", field, e.Value())
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "%s: validation failed (%s)", field, e.Tag())
	}
}
