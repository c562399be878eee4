package validator

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"labbook/internal/pkg/timeofday"
)

const dayLayout = "2006-01-02"

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("day", isDay)
	_ = validate.RegisterValidation("hhmm", isClock)
}

// Validate returns field -> failed tag, or nil when v is valid.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field()] = e.Tag()
	}
	return out
}

// isDay accepts a zero-padded calendar date such as 2026-01-09.
func isDay(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != len(dayLayout) {
		return false
	}
	_, err := time.Parse(dayLayout, s)
	return err == nil
}

func isClock(fl validator.FieldLevel) bool {
	_, err := timeofday.Parse(fl.Field().String())
	return err == nil
}
