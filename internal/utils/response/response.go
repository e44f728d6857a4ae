package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// DetailedError is an error with a human-readable explanation and optional
// structured data the client can act on.
func DetailedError(summary, details string, data interface{}) Response {
	return Response{
		Status:  StatusError,
		Error:   summary,
		Details: details,
		Data:    data,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errorMessages strings.Builder
	for _, err := range errs {
		errorMessages.WriteString(err.Field() + ": " + err.Tag() + "; ")
	}

	return Response{
		Status: StatusError,
		Error:  errorMessages.String(),
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}
