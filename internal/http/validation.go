package http

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/recurrence"
)

const (
	rfc3339Tag = "rfc3339"
	clockTag   = "clock"
	dateTag    = "date"

	dateLayout = "2006-01-02"
)

// requestValidator checks decoded request bodies and reports failures keyed by
// their JSON paths.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() *requestValidator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// JSON names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(rfc3339Tag, func(fl validator.FieldLevel) bool {
		_, err := parseTimestamp(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		_, err := recurrence.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation(dateTag, func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{rfc3339Tag, clockTag, dateTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomTag)
	}

	return &requestValidator{validate: validate, translator: translator}
}

func translateCustomTag(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case rfc3339Tag:
		return fe.Field() + " must be an RFC 3339 timestamp"
	case clockTag:
		return fe.Field() + " must be a HH:mm time of day"
	case dateTag:
		return fe.Field() + " must be a YYYY-MM-DD date"
	default:
		return fe.Field() + " is invalid"
	}
}

// check validates payload and converts failures into an application
// validation error.
func (v *requestValidator) check(payload any) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		if _, exists := vErr.FieldErrors[field]; exists {
			continue
		}
		vErr.FieldErrors[field] = fe.Translate(v.translator)
	}
	return vErr
}

// fieldPath drops the struct name from a validator namespace, e.g.
// "courseRequest.sessions[0].weekday" becomes "sessions[0].weekday".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// optionalTimestamp parses a value already checked by the rfc3339 tag.
func optionalTimestamp(value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	ts, err := parseTimestamp(*value)
	if err != nil {
		return nil
	}
	return &ts
}

func requiredTimestamp(value string) time.Time {
	ts, _ := parseTimestamp(value)
	return ts
}
