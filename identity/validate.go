package identity

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"bankdesk/models"
)

var phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)

// validatePhone checks if a phone number string is valid.
//
// Spaces, dashes, dots and parentheses are dropped first; what remains must
// be 7 to 15 digits with an optional leading plus sign.
func validatePhone(phone string) bool {
	phone = strings.NewReplacer("-", "", " ", "", ".", "", "(", "", ")", "").Replace(phone)
	return phonePattern.MatchString(phone)
}

// registration is the checked shape of a Register call. Fields are listed in
// the order errors are reported.
type registration struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Street      string `json:"street" validate:"required"`
	City        string `json:"city" validate:"required"`
	ZipCode     string `json:"zip_code" validate:"required"`
	Country     string `json:"country" validate:"required"`
	Phone       string `json:"phone" validate:"required,phone"`
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return validatePhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

var tagMessages = map[string]string{
	"required": "is required",
	"phone":    "invalid phone number",
	"email":    "invalid email address",
}

// validateProfile reports the first rejected field as a *models.ValidationError.
// Values are checked with surrounding whitespace removed.
func validateProfile(p models.Profile, password string) error {
	r := registration{
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		DateOfBirth: strings.TrimSpace(p.DateOfBirth),
		Street:      strings.TrimSpace(p.Street),
		City:        strings.TrimSpace(p.City),
		ZipCode:     strings.TrimSpace(p.ZipCode),
		Country:     strings.TrimSpace(p.Country),
		Phone:       strings.TrimSpace(p.Phone),
		Email:       strings.TrimSpace(p.Email),
		Username:    strings.TrimSpace(p.Username),
		Password:    strings.TrimSpace(password),
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return &models.ValidationError{Field: "profile", Message: err.Error()}
	}
	fe := fields[0]
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		msg = "failed " + fe.Tag() + " check"
	}
	return &models.ValidationError{Field: fe.Field(), Message: msg}
}
