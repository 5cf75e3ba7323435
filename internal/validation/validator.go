package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	MinAge = 13
	MaxAge = 120

	// Start dates may be at most this far ahead.
	maxStartHorizon = 2
)

var (
	namePattern      = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	phonePattern     = regexp.MustCompile(`^\+?[\d\s\-\(\)]+$`)
	plainTextPattern = regexp.MustCompile(`^[a-zA-Z0-9\s.,!?;:'"()\-]+$`)
	idPattern        = regexp.MustCompile(`^[0-9a-fA-F]{24}$|^[0-9]+$|^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	sortFields = []string{"submissionDate", "lastUpdated", "program", "status"}
)

// FieldError is one failed rule, reported back to the client.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is returned by Validator.Struct when any rule fails.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator wraps a configured validator.Validate. The date rules read the
// injected clock.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a Validator; now may be nil to use time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.mustRegister("personname", matches(namePattern))
	v.mustRegister("phone", matches(phonePattern))
	v.mustRegister("plaintext", matches(plainTextPattern))
	v.mustRegister("program", oneOf(models.ValidProgram))
	v.mustRegister("commitment", oneOf(models.ValidTimeCommitment))
	v.mustRegister("skilllevel", oneOf(models.ValidSkillLevel))
	v.mustRegister("appstatus", oneOf(models.ValidStatus))
	v.mustRegister("sortfield", validSort)
	v.mustRegister("github", githubURL)
	v.mustRegister("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	v.mustRegister("age", v.validAge)
	v.mustRegister("startdate", v.validStartDate)

	return v
}

func (v *Validator) mustRegister(tag string, fn validator.Func) {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Struct validates s and returns Errors, or nil when every rule passes.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
			Value:   safeValue(fe),
		})
	}
	return out
}

// ValidID accepts numeric ids (in-memory store), 24-char hex ids (MongoDB)
// and UUIDs (SQL).
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (v *Validator) validAge(fl validator.FieldLevel) bool {
	dob, err := ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	age := ageAt(dob, v.now())
	return age >= MinAge && age <= MaxAge
}

func (v *Validator) validStartDate(fl validator.FieldLevel) bool {
	start, err := ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	today := startOfDay(v.now())
	return !start.Before(today) && !start.After(today.AddDate(maxStartHorizon, 0, 0))
}

func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func oneOf(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	}
}

func validSort(fl validator.FieldLevel) bool {
	field := strings.TrimPrefix(fl.Field().String(), "-")
	for _, f := range sortFields {
		if f == field {
			return true
		}
	}
	return false
}

func githubURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || host == "www.github.com"
}

// fieldPath drops the root struct name from the namespace, leaving e.g.
// "technicalSkills[0].level".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// safeValue echoes the rejected value except for secrets.
func safeValue(fe validator.FieldError) interface{} {
	if strings.Contains(strings.ToLower(fe.Field()), "password") {
		return nil
	}
	if s, ok := fe.Value().(string); ok && len(s) > 100 {
		return nil
	}
	switch fe.Kind() {
	case reflect.Slice, reflect.Struct, reflect.Map:
		return nil
	}
	return fe.Value()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "personname":
		return fmt.Sprintf("%s can only contain letters and spaces", field)
	case "phone":
		return "Please enter a valid phone number"
	case "plaintext":
		return fmt.Sprintf("%s contains invalid characters", field)
	case "program":
		return "Program must be one of: " + strings.Join(models.Programs, ", ")
	case "commitment":
		return "Time commitment must be one of: " + strings.Join(models.TimeCommitments, ", ")
	case "skilllevel":
		return "Skill level must be one of: " + strings.Join(models.SkillLevels, ", ")
	case "appstatus":
		return "Status must be one of: " + strings.Join(models.Statuses, ", ")
	case "sortfield":
		return "Invalid sort parameter"
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "github":
		return "GitHub URL must point to github.com"
	case "isodate":
		return fmt.Sprintf("%s must be a valid ISO 8601 date", field)
	case "age":
		return fmt.Sprintf("You must be between %d and %d years old", MinAge, MaxAge)
	case "startdate":
		return "Start date must be between today and two years from now"
	default:
		return fmt.Sprintf("%s is not valid", field)
	}
}
