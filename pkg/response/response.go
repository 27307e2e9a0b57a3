// Package response defines the JSON envelope shared by every API endpoint:
// {success, message, data?, count?, errors?}.
package response

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var EmptyRequestBodyResponse = Response{
	Success: false,
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Success: false,
	Message: "Invalid request body.",
}

var ResourceNotFoundResponse = Response{
	Success: false,
	Message: "The requested resource was not found.",
}

var ServerErrorResponse = Response{
	Success: false,
	Message: "An internal server error occurred. Please try again later.",
}

// FieldError describes a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Count   *int         `json:"count,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Success: true,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// CollectionResponse wraps a list payload together with its length.
func CollectionResponse(msg string, count int, data any) Response {
	return Response{
		Success: true,
		Message: msg,
		Count:   &count,
		Data:    data,
	}
}

func ErrorResponse(msg string) Response {
	return Response{
		Success: false,
		Message: msg,
	}
}

// ValidationErrorResponse converts validator errors into a 400 envelope with
// per-field messages. Unknown errors fall back to a generic message.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Success: false,
		Message: "Validation failed.",
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return resp
	}

	for _, fieldErr := range validationErrs {
		resp.Errors = append(resp.Errors, FieldError{
			Field:   fieldErr.Field(),
			Message: fieldErrorMessage(fieldErr),
		})
	}

	return resp
}

func fieldErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "http_url":
		return "must be a valid http or https URL"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fieldErr.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fieldErr.Tag())
	}
}
