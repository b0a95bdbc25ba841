package customvalidator

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// RegisterCustomValidations регистрирует правила notblank и dateonly.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("notblank", isNotBlank); err != nil {
		return err
	}
	if err := v.RegisterValidation("dateonly", isDateOnly); err != nil {
		return err
	}
	return nil
}

// isNotBlank: строка непустая после обрезки пробелов.
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// isDateOnly: календарная дата вида 2006-01-02.
func isDateOnly(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(fl.Field().String()))
	return err == nil
}
