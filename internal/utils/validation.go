package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"task_tracker/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// maxbytes bounds a string by its encoded length; max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return domain.TaskStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("complaint_status", func(fl validator.FieldLevel) bool {
		return domain.ComplaintStatus(fl.Field().String()).Valid()
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError carries the first violated field of a request struct.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateStruct checks v against its validate tags and reports only the
// first violation in field order. The message comes from the field's
// msg_<rule> tag, then its msg tag, when present.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	return &ValidationError{
		Field:   fe.Field(),
		Tag:     fe.Tag(),
		Message: messageFor(v, fe),
	}
}

func messageFor(v any, fe validator.FieldError) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if msg := f.Tag.Get("msg_" + fe.Tag()); msg != "" {
			return msg
		}
		if msg := f.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("Invalid %s", fe.Field())
}
