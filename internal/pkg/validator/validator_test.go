package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	URL string `json:"url" validate:"required,url"`
}

type form struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10"`
	Items   []item `json:"items" validate:"dive"`
}

func TestValidate_Valid(t *testing.T) {
	errs := Validate(&form{Name: "A", Email: "a@b.com", Message: "0123456789"})
	assert.Nil(t, errs)
}

func TestValidate_ReportsJSONNames(t *testing.T) {
	errs := Validate(&form{Email: "not-an-email", Message: "short"})

	assert.Equal(t, map[string]string{
		"name":    "required",
		"email":   "email",
		"message": "min",
	}, errs)
}

func TestValidate_NestedSlice(t *testing.T) {
	errs := Validate(&form{
		Name:    "A",
		Email:   "a@b.com",
		Message: "0123456789",
		Items:   []item{{URL: "https://x.test/a"}, {URL: ""}},
	})

	assert.Equal(t, map[string]string{"items[1].url": "required"}, errs)
}
