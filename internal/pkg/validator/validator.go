package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

var (
	engineOnce sync.Once
	engine     *playground.Validate
)

func structValidator() *playground.Validate {
	engineOnce.Do(func() {
		engine = playground.New(playground.WithRequiredStructEnabled())

		// Report json field names so errors line up with request bodies.
		engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = engine.RegisterValidation("salary_month", func(fl playground.FieldLevel) bool {
			return IsValidSalaryMonth(fl.Field().String())
		})
	})
	return engine
}

// Struct validates s using its `validate` tags and returns ValidationErrors
// keyed by json field name.
func Struct(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{Field: fe.Field(), Message: message(fe)})
	}
	return errs
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "salary_month":
		return "must be in YYYY-MM format"
	case "datetime":
		return "must match format " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// IsValidSalaryMonth accepts exactly "YYYY-MM".
func IsValidSalaryMonth(s string) bool {
	if len(s) != len("2006-01") {
		return false
	}
	_, err := time.Parse("2006-01", s)
	return err == nil
}
