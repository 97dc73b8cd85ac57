// Package validation adapts go-playground/validator to Echo's
// Validator interface so handlers can call c.Validate on bound
// request structs.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps a shared validator instance.  A single instance
// caches struct metadata and is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator ready to hang on echo.Echo#Validator.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Validate checks the struct tags and returns a flat, client
// readable error instead of the library's verbose default.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
