package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message renders the error the way the API reports it to callers.
func (e *FieldError) Message() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("The %s field is required", e.Field)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters", e.Field, e.Param)
	case "numeric":
		return fmt.Sprintf("The %s must be a number", e.Field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address", e.Field)
	}
	return fmt.Sprintf("The %s field is invalid", e.Field)
}

var validate = validator.New()

func init() {
	// Report field names as they appear on the wire (form tag), not as Go
	// struct field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

func ValidateStruct(data interface{}) []*FieldError {
	var errors []*FieldError
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, &FieldError{
				Field: err.Field(),
				Tag:   err.Tag(),
				Param: err.Param(),
			})
		}
	}
	return errors
}
