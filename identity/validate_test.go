package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bankdesk/models"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{"Valid phone number", "1234567890", true},
		{"Valid phone with dashes", "123-456-7890", true},
		{"Valid phone with spaces", "123 456 7890", true},
		{"Valid international", "+7 (916) 123-45-67", true},
		{"Invalid phone - too short", "123456", false},
		{"Invalid phone - too long", "1234567890123456", false},
		{"Invalid phone - contains letters", "123abc4567", false},
		{"Invalid phone - plus in the middle", "7+9161234567", false},
		{"Empty phone", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validatePhone(tt.phone)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateProfileReportsFirstMissingField(t *testing.T) {
	err := validateProfile(models.Profile{}, "")

	var ve *models.ValidationError
	if assert.ErrorAs(t, err, &ve) {
		assert.Equal(t, "first_name", ve.Field)
		assert.Equal(t, "is required", ve.Message)
	}
}

func TestValidateProfileAcceptsCompleteProfile(t *testing.T) {
	assert.NoError(t, validateProfile(ivanov(), "password123"))
}

func TestValidateProfileMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *models.Profile)
		field   string
		message string
	}{
		{"blank city", func(p *models.Profile) { p.City = "   " }, "city", "is required"},
		{"empty phone", func(p *models.Profile) { p.Phone = "" }, "phone", "is required"},
		{"malformed phone", func(p *models.Profile) { p.Phone = "12ab" }, "phone", "invalid phone number"},
		{"malformed email", func(p *models.Profile) { p.Email = "ivanov.example.com" }, "email", "invalid email address"},
		{"padded fields pass", func(p *models.Profile) { p.Email = " ivanov@example.com "; p.City = " Moscow" }, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ivanov()
			tt.mutate(&p)
			err := validateProfile(p, "password123")
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *models.ValidationError
			if assert.ErrorAs(t, err, &ve) {
				assert.Equal(t, tt.field, ve.Field)
				assert.Equal(t, tt.message, ve.Message)
			}
		})
	}
}

func TestValidateProfileRejectsBlankPassword(t *testing.T) {
	var ve *models.ValidationError
	if assert.ErrorAs(t, validateProfile(ivanov(), "  "), &ve) {
		assert.Equal(t, "password", ve.Field)
	}
}
