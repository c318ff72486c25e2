package helper

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	notBlankTag = "notblank"
	pinTag      = "pin4"
	clockTag    = "hhmm"

	pinRe   = regexp.MustCompile(`^[0-9]{4}$`)
	clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// error keys follow the json names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if s, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(s) != ""
		}
		return false
	})
	_ = Validate.RegisterValidation(pinTag, func(fl validator.FieldLevel) bool {
		return pinRe.MatchString(fl.Field().String())
	})
	_ = Validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		return clockRe.MatchString(fl.Field().String())
	})

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, pinTag, clockTag} {
		_ = Validate.RegisterTranslation(tag, Translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case pinTag:
		return "PIN must be a 4-digit number"
	case clockTag:
		return fe.Field() + " must be a time in HH:MM format"
	}
	return ""
}

// IsPIN reports whether s is exactly four ASCII digits.
func IsPIN(s string) bool { return pinRe.MatchString(s) }

// IsClock reports whether s is a 24h HH:MM value.
func IsClock(s string) bool { return clockRe.MatchString(s) }

// Messages overrides the translated text, keyed by "field" or "field.tag".
type Messages map[string]string

// ValidateStruct runs the shared validator and renders per-field messages.
// Returns nil when v is valid.
func ValidateStruct(v any, overrides Messages) map[string][]string {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	return ValidationErrors(err, overrides)
}

func ValidationErrors(err error, overrides Messages) map[string][]string {
	out := map[string][]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["_"] = []string{err.Error()}
		return out
	}
	for _, fe := range ve {
		field := fe.Field()
		msg := ""
		if overrides != nil {
			if m, ok := overrides[field+"."+fe.Tag()]; ok {
				msg = m
			} else if m, ok := overrides[field]; ok {
				msg = m
			}
		}
		if msg == "" {
			msg = fe.Translate(Translator)
		}
		out[field] = append(out[field], msg)
	}
	return out
}
