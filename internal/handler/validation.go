package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"myflix-api/pkg/response"
)

var fieldMessages = map[string]map[string]string{
	"Username": {
		"required": "Username is required.",
		"min":      "Username is required.",
		"alphanum": "Username contains non alphanumeric characters - not allowed.",
	},
	"Password": {
		"required": "Password is required.",
	},
	"Email": {
		"required": "Email does not appear to be valid.",
		"email":    "Email does not appear to be valid.",
	},
	"Birthday": {
		"datetime": "Birthday must be a date in YYYY-MM-DD format.",
	},
}

// validationErrors turns validator output into the per-field error list sent with a 422.
func validationErrors(err error) []response.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []response.FieldError{{Message: err.Error()}}
	}

	out := make([]response.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " failed the " + fe.Tag() + " check."
		}
		out = append(out, response.FieldError{
			Field:   fe.Field(),
			Message: msg,
			Value:   fe.Value(),
		})
	}
	return out
}
