package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ichra-workers/internal/models"

	"github.com/go-playground/validator/v10"
)

// StructValidator applies `validate` tags, reporting fields by their JSON names.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() *StructValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(profileStructLevel, models.Profile{})
	return &StructValidator{v: v}
}

// profileStructLevel enforces the rules that span several profile fields.
func profileStructLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(models.Profile)

	if p.IsIndividualCoverage() && p.DependentCount > 0 {
		sl.ReportError(p.DependentCount, "dependentCount", "DependentCount", "individual_no_dependents", "")
	}
	if len(p.DependentAges) > p.DependentCount {
		sl.ReportError(p.DependentAges, "dependentAges", "DependentAges", "dependent_ages_count", "")
	}
}

// Struct validates s. A non-struct argument is a programming error and is returned as err.
func (s *StructValidator) Struct(value interface{}) (*ValidationResult, error) {
	err := s.v.Struct(value)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	out := &ValidationResult{Valid: false}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: describe(fe),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return out, nil
}

// fieldPath drops the root type name: "Profile.priorities.cost" becomes "priorities.cost".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "uppercase":
		return "must be uppercase"
	case "individual_no_dependents":
		return "must be 0 for individual coverage"
	case "dependent_ages_count":
		return "has more entries than dependentCount"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ValidateProfile checks the raw document against the profile schema and,
// when that passes, applies the struct rules to the decoded profile. A nil
// profile after a schema pass means decoding failed and is reported invalid.
func ValidateProfile(raw interface{}, profile *models.Profile, sv *StructValidator) (*ValidationResult, error) {
	result, err := ValidateDocument(ProfileSchema(), raw)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return result, nil
	}
	// The schema accepts some documents Go cannot decode, such as 35.0 for an integer field.
	if profile == nil {
		result.merge(&ValidationResult{Errors: []ValidationError{{
			Field:   "profile",
			Message: "could not be decoded into a profile",
			Code:    "INVALID_TYPE",
		}}})
		return result, nil
	}

	structResult, err := sv.Struct(*profile)
	if err != nil {
		return nil, err
	}
	result.merge(structResult)
	return result, nil
}
