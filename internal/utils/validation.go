package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"hospital-app-server/internal/apperr"
)

var registerTagName sync.Once

// useJSONFieldNames makes validation errors report the JSON field name.
func useJSONFieldNames() {
	registerTagName.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// fieldMessage renders one failed constraint as a user-facing sentence.
func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "datetime":
		return fmt.Sprintf("Invalid format. Use %s.", humanLayout(e.Param()))
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", strings.ReplaceAll(e.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("Must be at least %s.", e.Param())
	case "max", "lte":
		return fmt.Sprintf("Must be at most %s.", e.Param())
	case "email":
		return "Enter a valid email address."
	default:
		return fmt.Sprintf("Failed the %q check.", e.Tag())
	}
}

func humanLayout(layout string) string {
	switch layout {
	case "2006-01-02":
		return "YYYY-MM-DD"
	case "15:04":
		return "HH:MM"
	default:
		return layout
	}
}

// FormatValidationError turns binding errors into a per-field message map.
func FormatValidationError(err error) map[string][]string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		out := make(map[string][]string, len(errs))
		for _, e := range errs {
			out[e.Field()] = append(out[e.Field()], fieldMessage(e))
		}
		return out
	}
	return map[string][]string{apperr.NonFieldKey: {"Invalid request payload."}}
}

// BindAndValidate binds the JSON body to obj and validates its binding tags.
// On failure it sends a 400 with the field errors and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	useJSONFieldNames()
	if err := c.ShouldBindJSON(obj); err != nil {
		ValidationFailed(c, FormatValidationError(err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters into obj.
func BindQuery(c *gin.Context, obj interface{}) bool {
	useJSONFieldNames()
	if err := c.ShouldBindQuery(obj); err != nil {
		ValidationFailed(c, FormatValidationError(err))
		return false
	}
	return true
}
