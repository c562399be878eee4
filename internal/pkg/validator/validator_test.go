package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `validate:"required,email"`
	Day   string `validate:"required,day"`
	Start string `validate:"omitempty,hhmm"`
}

func TestValidate_OK(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@lab.example", Day: "2026-01-09", Start: "9:30"}))
}

func TestValidate_ReportsFailedTags(t *testing.T) {
	errs := Validate(sample{Email: "nope", Day: "2026-1-9", Start: "nine"})

	assert.Equal(t, map[string]string{
		"Email": "email",
		"Day":   "day",
		"Start": "hhmm",
	}, errs)
}

func TestValidate_RejectsImpossibleDate(t *testing.T) {
	errs := Validate(sample{Email: "a@lab.example", Day: "2026-02-30"})
	assert.Equal(t, "day", errs["Day"])
}
