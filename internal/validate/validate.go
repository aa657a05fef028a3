// Package validate runs local form checks before any request is sent.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nhle/planner/internal/model"
)

// Error is a local validation failure. Message is ready to show to the user.
type Error struct {
	Message string

	// Fields maps the offending field's json name to its message.
	Fields map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// IsError reports whether err (or any error in its chain) is a validation Error.
func IsError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

// Newf returns a validation Error with a formatted message.
func Newf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse(model.DateLayout, s)
		return err == nil
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// errorMessages maps validation tags to messages. %s is the field's label.
var errorMessages = map[string]string{
	"required":     "%s is required.",
	"notblank":     "%s is required.",
	"emailaddr":    "Please enter a valid email address.",
	"eqfield":      "Passwords do not match.",
	"calendardate": "%s must be a date in YYYY-MM-DD format.",
	"min":          "%s is too short.",
}

// messager lets a form override the message for a field/tag pair.
type messager interface {
	validationMessage(field, tag string) string
}

// Struct validates s and returns a *Error describing the first failure,
// or nil. Field labels come from the "label" struct tag.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating %T: %w", s, err)
	}

	structType := reflect.TypeOf(s)
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	custom, _ := s.(messager)

	out := &Error{Fields: make(map[string]string, len(validationErrs))}
	for _, e := range validationErrs {
		field, _ := structType.FieldByName(e.StructField())
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" {
			name = e.StructField()
		}
		label := field.Tag.Get("label")
		if label == "" {
			label = e.StructField()
		}

		msg := ""
		if custom != nil {
			msg = custom.validationMessage(e.StructField(), e.Tag())
		}
		if msg == "" {
			msg = parseMessage(label, e.Tag())
		}
		out.Fields[name] = msg
		if out.Message == "" {
			out.Message = msg
		}
	}
	return out
}

func parseMessage(label, tag string) string {
	if msg, ok := errorMessages[tag]; ok {
		if strings.Contains(msg, "%s") {
			return fmt.Sprintf(msg, label)
		}
		return msg
	}
	return fmt.Sprintf("%s is invalid.", label)
}
