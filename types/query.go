package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// SearchParams carries a retrieval query. TopK is a pointer so an omitted
// field (defaulted by the handler) stays distinguishable from an explicit
// zero, which asks for no results.
type SearchParams struct {
	Query string `json:"query" validate:"required"`
	TopK  *int   `json:"top_k"`
}

func (params *SearchParams) TopKOrDefault(def int) int {
	if params.TopK == nil {
		return def
	}
	return *params.TopK
}

type UserParams struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateDocumentParams struct {
	Name string `json:"name" validate:"required"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *SearchParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *UserParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *UpdateDocumentParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
