package model

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var contactPattern = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,18}$`)

// RegisterValidations installs custom binding rules on gin's validator.
// Called once at startup, before any routes are served.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
			return contactPattern.MatchString(fl.Field().String())
		})
	}
}
