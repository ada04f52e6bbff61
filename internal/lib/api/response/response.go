package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"telecasino-dice/internal/models"
)

type Response struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func Error(msg string, details string) Response {
	return Response{
		Error:   msg,
		Details: details,
	}
}

// FromError renders err and picks the HTTP status for it. Caller mistakes
// are 400; every other failure of a round is 500.
func FromError(msg string, err error) (int, Response) {
	code := models.ErrorCodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case models.CodeInvalidBet, models.CodeUnknownBetType:
		status = http.StatusBadRequest
	}

	return status, Response{
		Error:   msg,
		Code:    string(code),
		Details: err.Error(),
	}
}

// Binding renders a gin binding failure. Validation errors get one message
// per field; anything else is reported as is.
func Binding(err error) Response {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return ValidationError(errs)
	}
	return Response{
		Error:   "Invalid request",
		Code:    string(models.CodeInvalidBet),
		Details: err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is required", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}

	return Response{
		Error:   "Invalid request",
		Code:    string(models.CodeInvalidBet),
		Details: strings.Join(errMsgs, ", "),
	}
}
