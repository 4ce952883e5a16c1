package models

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Dan9191/worklog-service/internal/customerrors"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	validate        = newValidator()
)

const passwordSpecials = "!@#$%^&*"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Hyphenated UUIDs of either case, matching what uuid.Parse accepts.
	_ = v.RegisterValidation("uuid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 36 {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(PasswordIssues(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("hundredths", func(fl validator.FieldLevel) bool {
		cents := fl.Field().Float() * 100
		return math.Abs(cents-math.Round(cents)) < 1e-9
	})
	return v
}

// PasswordIssues lists the password rules p breaks. Letter and digit
// classes are ASCII only.
func PasswordIssues(p string) []string {
	var issues []string
	var upper, lower, digit, special, space bool
	for _, r := range p {
		switch {
		case unicode.IsSpace(r):
			space = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
		if strings.ContainsRune(passwordSpecials, r) {
			special = true
		}
	}
	if space {
		issues = append(issues, "password cannot contain spaces")
	}
	if !upper {
		issues = append(issues, "must contain uppercase letter")
	}
	if !lower {
		issues = append(issues, "must contain lowercase letter")
	}
	if !digit {
		issues = append(issues, "must contain number")
	}
	if !special {
		issues = append(issues, "must contain special character")
	}
	return issues
}

// Validate checks v against its validate tags and returns a validation
// error with per-field issues.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return customerrors.ErrBadRequest
	}
	issues := make(map[string][]string)
	for _, fe := range verrs {
		field := fe.Field()
		issues[field] = append(issues[field], describe(fe)...)
	}
	return customerrors.NewValidation(issues)
}

func describe(fe validator.FieldError) []string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return []string{"is required"}
	case "min", "gte":
		if isString {
			return []string{fmt.Sprintf("must be at least %s characters", fe.Param())}
		}
		return []string{fmt.Sprintf("must be at least %s", fe.Param())}
	case "max", "lte":
		if isString {
			return []string{fmt.Sprintf("must be at most %s characters", fe.Param())}
		}
		return []string{fmt.Sprintf("must be at most %s", fe.Param())}
	case "uuid":
		return []string{"must be a valid UUID"}
	case "datetime":
		return []string{"must be a date in YYYY-MM-DD format"}
	case "username":
		return []string{"only letters, numbers, underscore, hyphen"}
	case "password":
		s, _ := fe.Value().(string)
		return PasswordIssues(s)
	case "hundredths":
		return []string{"must have at most two decimal places"}
	default:
		return []string{"is invalid"}
	}
}
