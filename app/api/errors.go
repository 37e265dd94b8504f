package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"ingexai/auth"
	"ingexai/types"
)

func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		apiErr = NewError(fiberErr.Code, fiberErr.Message)
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	apiErr = fromDomainError(err)
	if apiErr.Code >= fiber.StatusInternalServerError {
		fmt.Printf("Request failed with code %d and message: %s\n", apiErr.Code, err.Error())
	}
	return c.Status(apiErr.Code).JSON(apiErr)
}

// fromDomainError maps the pipeline failure taxonomy onto HTTP status codes.
func fromDomainError(err error) Error {
	switch {
	case errors.Is(err, types.ErrUnsupportedMediaType):
		return NewError(fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, types.ErrDecoding), errors.Is(err, types.ErrExtraction):
		return NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, types.ErrInvalidChunkSize):
		return NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrNotFound):
		return NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		return NewError(fiber.StatusUnauthorized, err.Error())
	}
	return NewError(fiber.StatusInternalServerError, "internal server error")
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrInvalidID() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid id given",
	}
}

func ErrUnAuthorized(msg string) Error {
	return Error{
		Code:    fiber.StatusUnauthorized,
		Message: msg,
	}
}

func ErrNotFound[T any](arg T, resource string) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with %v not found", resource, arg),
	}
}

func ErrInvalidCredentials() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid credentials",
	}
}
