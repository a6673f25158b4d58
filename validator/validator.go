package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern          = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
	datePattern           = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	intervalPattern       = regexp.MustCompile(`^\d{1,3}:[0-5]\d:[0-5]\d$`)
	accountNumberPattern  = regexp.MustCompile(`^C\d{4,}$`)
	propertyNumberPattern = regexp.MustCompile(`^P\d{3,}$`)
	employeeNumberPattern = regexp.MustCompile(`^E\d{4,}$`)
	stateCodePattern      = regexp.MustCompile(`^[A-Z]{2}$`)
	zipcodePattern        = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	orderStatusPattern    = regexp.MustCompile(`^(Scheduled|In Progress|Completed|Cancelled)$`)
)

// TimestampLayouts are the accepted input shapes for timestamp fields, most specific first.
var TimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Message)
	}
	return strings.Join(messages, "; ")
}

// New creates a new validator instance
func New() *Validator {
	v := validator.New()

	// Use the env tag name so config errors name the variable, not the Go field
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("env"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterValidation("phone", validatePhone)
	v.RegisterValidation("dateformat", validateDateFormat)
	v.RegisterValidation("timestamp", validateTimestamp)
	v.RegisterValidation("interval", validateInterval)
	v.RegisterValidation("accountnumber", matches(accountNumberPattern))
	v.RegisterValidation("propertynumber", matches(propertyNumberPattern))
	v.RegisterValidation("employeenumber", matches(employeeNumberPattern))
	v.RegisterValidation("statecode", matches(stateCodePattern))
	v.RegisterValidation("zipcode", matches(zipcodePattern))
	v.RegisterValidation("orderstatus", matches(orderStatusPattern))

	return &Validator{validate: v}
}

// Validate validates a struct and returns validation errors
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var validationErrs ValidationErrors
	for _, fe := range fieldErrs {
		validationErrs = append(validationErrs, ValidationError{
			Field:   fe.Field(),
			Message: msgForTag(fe.Field(), fe),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
		})
	}

	return validationErrs
}

// VarField validates a single value against tag, reporting failures under field.
func (v *Validator) VarField(field string, value interface{}, tag string) error {
	if tag == "" {
		return nil
	}
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var validationErrs ValidationErrors
	for _, fe := range fieldErrs {
		validationErrs = append(validationErrs, ValidationError{
			Field:   field,
			Message: msgForTag(field, fe),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
		})
	}

	return validationErrs
}

// msgForTag returns a human-readable error message for a validation tag
func msgForTag(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "phone":
		return fmt.Sprintf("%s must be in XXX-XXX-XXXX format", field)
	case "dateformat":
		return fmt.Sprintf("%s must be a valid date in YYYY-MM-DD format", field)
	case "timestamp":
		return fmt.Sprintf("%s must be in YYYY-MM-DD or YYYY-MM-DD HH:MM format", field)
	case "interval":
		return fmt.Sprintf("%s must be in HH:MM:SS format", field)
	case "accountnumber":
		return fmt.Sprintf("%s must look like C0001", field)
	case "propertynumber":
		return fmt.Sprintf("%s must look like P001", field)
	case "employeenumber":
		return fmt.Sprintf("%s must look like E0001", field)
	case "statecode":
		return fmt.Sprintf("%s must be a two-letter state code", field)
	case "zipcode":
		return fmt.Sprintf("%s must be a 5 digit zip code", field)
	case "orderstatus":
		return fmt.Sprintf("%s must be one of: Scheduled, In Progress, Completed, Cancelled", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// Custom validators

func matches(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

// validatePhone validates XXX-XXX-XXXX format
func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// validateDateFormat validates YYYY-MM-DD format and rejects impossible dates like 2025-02-30
func validateDateFormat(fl validator.FieldLevel) bool {
	date := fl.Field().String()
	if !datePattern.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func validateTimestamp(fl validator.FieldLevel) bool {
	_, ok := ParseTimestamp(fl.Field().String())
	return ok
}

// validateInterval validates HH:MM:SS with unbounded hours up to three digits
func validateInterval(fl validator.FieldLevel) bool {
	return intervalPattern.MatchString(fl.Field().String())
}

// ParseTimestamp parses s using the first matching layout in TimestampLayouts.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
