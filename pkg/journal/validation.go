package journal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"droscher.com/BeanJournal/pkg/model"
)

const (
	minTasting = 1
	maxTasting = 10
	minScore   = 1.0
	maxScore   = 10.0
)

var messages = map[string]string{
	"required": "{0} is required",
	"notblank": "{0} cannot be empty",
	"httpurl":  "{0} must be a valid HTTP or HTTPS URL",
	"max":      "{0} must be {1} characters or less",
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	if err := validate.RegisterValidation("notblank", isNotBlank); err != nil {
		return nil, nil, fmt.Errorf("failed to register notblank validation: %w", err)
	}

	if err := validate.RegisterValidation("httpurl", isHTTPURL); err != nil {
		return nil, nil, fmt.Errorf("failed to register httpurl validation: %w", err)
	}

	for tag, message := range messages {
		if err := registerMessage(validate, trans, tag, message); err != nil {
			return nil, nil, fmt.Errorf("failed to register %s translation: %w", tag, err)
		}
	}

	return validate, trans, nil
}

func registerMessage(validate *validator.Validate, trans ut.Translator, tag, message string) error {
	return validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, message, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		text, err := ut.T(tag, fe.Field(), fe.Param())
		if err != nil {
			return fe.Error()
		}

		return text
	})
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isHTTPURL(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())

	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// lookupRules is the validated shape of a lookup payload.
type lookupRules struct {
	Name      string `json:"name"       validate:"required,notblank"`
	ShortForm string `json:"short_form" validate:"omitempty,max=20"`
	URL       string `json:"url"        validate:"omitempty,httpurl"`
	ImageURL  string `json:"image_url"  validate:"omitempty,httpurl"`
}

type productRules struct {
	URL      string `json:"url"       validate:"omitempty,httpurl"`
	ImageURL string `json:"image_url" validate:"omitempty,httpurl"`
}

// check runs the struct rules and turns field failures into one ValidationError.
func (s *Service) check(rules any) error {
	err := s.validate.Struct(rules)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	var combined error
	for _, fieldError := range fieldErrors {
		combined = multierr.Append(combined, errors.New(fieldError.Translate(s.trans)))
	}

	return asValidationError(combined)
}

// normalizeLookup trims the fields whose rules ignore surrounding whitespace.
func normalizeLookup(record model.Lookup) model.Lookup {
	record.Name = strings.TrimSpace(record.Name)
	record.ShortForm = strings.TrimSpace(record.ShortForm)
	record.URL = strings.TrimSpace(record.URL)
	record.ImageURL = strings.TrimSpace(record.ImageURL)

	return record
}

func (s *Service) checkLookup(name string, record model.Lookup) error {
	normalized := normalizeLookup(record)

	return s.check(lookupRules{
		Name:      name,
		ShortForm: normalized.ShortForm,
		URL:       normalized.URL,
		ImageURL:  normalized.ImageURL,
	})
}

// checkTasting rejects tasting scores outside 1-10 and an overall score
// outside 1.0-10.0. Every violation is reported.
func checkTasting(input *BrewSessionInput) error {
	var err error

	for _, field := range []struct {
		name  string
		value *int
	}{
		{"sweetness", input.Sweetness},
		{"acidity", input.Acidity},
		{"bitterness", input.Bitterness},
		{"body", input.Body},
		{"aroma", input.Aroma},
		{"flavor_profile_match", input.FlavorProfileMatch},
	} {
		if field.value != nil && (*field.value < minTasting || *field.value > maxTasting) {
			err = multierr.Append(err, fmt.Errorf("%s must be between %d and %d", field.name, minTasting, maxTasting))
		}
	}

	if input.Score != nil && (*input.Score < minScore || *input.Score > maxScore) {
		err = multierr.Append(err, fmt.Errorf("score must be between %.1f and %.1f", minScore, maxScore))
	}

	return asValidationError(err)
}
