package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every field of r lies within its declared domain.
func Validate(r *SeasonRecord) error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("%w: %s: %s", ErrInvalidRecord, r.Key(), strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, r.Key(), err)
	}
	return nil
}
