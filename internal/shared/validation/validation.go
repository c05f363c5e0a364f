package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "lattice-cms-init/internal/shared/errors"

	"github.com/go-playground/validator/v10"
)

// ErrValidatorInit is returned when custom validator registration fails
var ErrValidatorInit = errors.New("validator initialization failed")

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

// initValidators creates the validator with the MongoDB-specific rules
func initValidators() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())
	vld.RegisterTagNameFunc(fieldName)

	if err := vld.RegisterValidation("mongo_uri", func(fl validator.FieldLevel) bool {
		uri := fl.Field().String()
		return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to register 'mongo_uri': %w", ErrValidatorInit, err)
	}

	// Characters MongoDB rejects in database names
	if err := vld.RegisterValidation("mongo_dbname", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), `/\. "$`)
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to register 'mongo_dbname': %w", ErrValidatorInit, err)
	}

	return vld, nil
}

// GetValidator returns the singleton validator instance
func GetValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidators()
	})

	return validate, errValidate
}

// ValidateStruct validates payload against its validate tags. Every failing
// field is reported in a *errors.ValidationErrors.
func ValidateStruct(payload any) error {
	vld, err := GetValidator()
	if err != nil {
		return err
	}

	if err := vld.Struct(payload); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
		}

		ve := apperrors.NewValidationErrors()
		for _, fe := range fieldErrors {
			ve.Add(fe.Field(), message(fe), nil)
		}
		return ve
	}

	return nil
}

// fieldName reports fields by the name an operator sets: env var, then json, then bson
func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"env", "json", "bson"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

var messages = map[string]func(param string) string{
	"required":     func(string) string { return "is required" },
	"required_if":  func(param string) string { return "is required when " + param },
	"email":        func(string) string { return "must be a valid email address" },
	"gt":           func(param string) string { return "must be greater than " + param },
	"max":          func(param string) string { return "must be at most " + param + " characters" },
	"mongo_uri":    func(string) string { return "must use the mongodb:// or mongodb+srv:// scheme" },
	"mongo_dbname": func(string) string { return `must not contain any of / \ . " $ or a space` },
}

func message(fe validator.FieldError) string {
	if format, ok := messages[fe.Tag()]; ok {
		return format(fe.Param())
	}
	return fmt.Sprintf("failed the '%s' check", fe.Tag())
}
