package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"github.com/yigit/schoolsphere/internal/lite/store"
	"github.com/yigit/schoolsphere/internal/pkg/validation"
)

const (
	roleTag  = "lite_role"
	roleText = "{0} must be one of admin, teacher, student, parent, librarian or accountant"
)

// requestValidator satisfies echo.Validator with English messages.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newValidator() (*requestValidator, error) {
	v := validator.New()
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		return nil, errors.Wrap(err, "registering translations")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validation.Register(v); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return store.Role(fl.Field().String()).Valid()
	}); err != nil {
		return nil, errors.Wrap(err, "registering role rule")
	}

	rv := &requestValidator{validate: v, translator: translator}
	if err := rv.translation(roleTag, roleText); err != nil {
		return nil, err
	}
	if err := rv.translation("strongpass", "{0} must be at least 8 characters and contain a letter and a digit"); err != nil {
		return nil, err
	}
	return rv, nil
}

func (rv *requestValidator) translation(tag, text string) error {
	return errors.Wrapf(rv.validate.RegisterTranslation(tag, rv.translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	), "registering %s translation", tag)
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// fields renders validation failures keyed by JSON field name.
func (rv *requestValidator) fields(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = e.Translate(rv.translator)
	}
	return out
}
