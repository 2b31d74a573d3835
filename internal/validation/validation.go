package validation

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNoFieldsToUpdate = "NO_FIELDS_TO_UPDATE"
	CodeInvalidBody      = "INVALID_REQUEST_BODY"
)

// now is swapped in tests to pin the current year.
var now = time.Now

var validate = newValidator()

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// Error reports every rule a payload broke, not only the first one.
type Error struct {
	Code   string
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Response() ErrorResponse {
	msg := "validation failed"
	if e.Code == CodeNoFieldsToUpdate {
		msg = "at least one field must be provided to update"
	}
	return ErrorResponse{
		Code:    e.Code,
		Message: msg,
		Errors:  e.Fields,
	}
}

func IsValidationError(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// notfuture keeps a year at or below the calendar year at validation time.
	if err := v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(now().Year())
	}); err != nil {
		panic(err)
	}

	return v
}

// Struct runs the validate tags of v and collects all violations.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &Error{
			Code:   CodeValidationFailed,
			Fields: formatValidationErrors(verrs),
		}
	}
	return err
}

// BindJSON decodes the request body into dst. Rule checks happen later in the
// service; this only rejects bodies that are not valid JSON for dst.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeInvalidBody,
			Message: "invalid request body",
			Errors: []FieldError{
				{
					Field:   "",
					Rule:    "syntax",
					Message: err.Error(),
				},
			},
		})
		return false
	}

	return true
}

func formatValidationErrors(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(verrs))

	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: buildMessage(fe.Field(), fe),
		})
	}

	return fields
}

func buildMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must not be empty"
		}
		return field + " must be at least " + fe.Param()
	case "notfuture":
		return field + " must not be later than the current year"
	case "isbn":
		return field + " must be a valid ISBN-10 or ISBN-13"
	}

	return field + " is invalid (" + fe.Tag() + ")"
}
