package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidations installs the decimal binding rules on gin's validator
// engine. Decimal amounts come over the wire as JSON numbers or strings, so
// the stock numeric tags cannot check them.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("dgt0", decimalPositive); err != nil {
		return err
	}
	return v.RegisterValidation("dgte0", decimalNonNegative)
}

// dgt0 requires a strictly positive decimal
func decimalPositive(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && d.IsPositive()
}

// dgte0 requires a non-negative decimal
func decimalNonNegative(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && !d.IsNegative()
}
