package validation

import (
	"errors"
	"fmt"
	"strings"

	"todoweb/internal/core/model/response"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)

	translator, found := uni.GetTranslator("en")

	if !found {
		return nil, errors.New("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}

	v := &Validator{
		validate:   validate,
		translator: translator,
	}

	if err := v.addCustomTranslations(); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

func (v *Validator) addCustomTranslations() error {
	for tag, text := range map[string]string{
		"required": "{0} is required",
		"max":      "{0} must be no more than {1} characters long",
	} {
		tag, text := tag, text

		err := v.validate.RegisterTranslation(tag, v.translator, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
				return msg
			}

			t, _ := ut.T(tag, getFieldName(fe.Field()), fe.Param())
			return t
		})

		if err != nil {
			return fmt.Errorf("register %s translation: %w", tag, err)
		}
	}

	return nil
}

// fieldMessages overrides the generic text where the forms used to show a
// more specific one.
var fieldMessages = map[string]string{
	"Username.max":             "Username must be between 3 and 80 characters",
	"PasswordConfirm.required": "Password confirmation is required",
	"Description.required":     "Todo description is required.",
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Username":        "Username",
		"Password":        "Password",
		"PasswordConfirm": "Password confirmation",
		"Description":     "Todo description",
	}

	if name, exists := fieldNames[field]; exists {
		return name
	}

	return field
}

func (v *Validator) FormatValidationErrors(err error) []response.ValidationError {
	var errs []response.ValidationError
	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			errs = append(errs, response.ValidationError{
				Field:   strings.ToLower(fieldError.Field()),
				Message: fieldError.Translate(v.translator),
			})
		}
	}

	return errs
}

// FirstMessage returns the first translated message, the one a form flashes.
func (v *Validator) FirstMessage(err error) string {
	if errs := v.FormatValidationErrors(err); len(errs) > 0 {
		return errs[0].Message
	}

	return "Invalid input"
}
