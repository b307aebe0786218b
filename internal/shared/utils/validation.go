package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"dicomdesk/internal/shared/errors"
)

var validate *validator.Validate

// init initializes the validator
func init() {
	validate = validator.New()

	// Use JSON tag names for validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("dicom_uid", func(fl validator.FieldLevel) bool {
		return ValidateStudyInstanceUID(fl.Field().String()) == nil
	})
}

// ValidateStruct validates a struct and returns a user-friendly error
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return nil
	}

	var errorMessages []string
	for _, fieldError := range validationErrors {
		errorMessages = append(errorMessages, getFieldErrorMessage(fieldError))
	}

	return errors.NewValidationError(
		"Validation failed",
		strings.Join(errorMessages, "; "),
	)
}

// getFieldErrorMessage returns a user-friendly error message for a field validation error
func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "dicom_uid":
		return fmt.Sprintf("%s must be a valid DICOM UID", field)
	default:
		return fmt.Sprintf("%s failed validation for '%s'", field, tag)
	}
}

// uidComponentRegex matches one numeric UID component without leading zeros.
var uidComponentRegex = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

const maxUIDLength = 64

// ValidateStudyInstanceUID checks the DICOM UID form: dot-separated numeric
// components, no leading zeros, at most 64 characters total.
func ValidateStudyInstanceUID(uid string) error {
	if uid == "" {
		return errors.NewValidationError("study instance UID is required")
	}
	if len(uid) > maxUIDLength {
		return errors.NewValidationError(fmt.Sprintf("study instance UID exceeds %d characters", maxUIDLength))
	}
	for _, component := range strings.Split(uid, ".") {
		if !uidComponentRegex.MatchString(component) {
			return errors.NewValidationError(fmt.Sprintf("study instance UID %q is malformed", uid))
		}
	}
	return nil
}
