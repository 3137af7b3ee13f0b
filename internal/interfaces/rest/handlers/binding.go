package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody reads a JSON body into dst and validates it.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return application.NewValidationError("Request body is required", err)
		}
		return application.NewValidationError("Request body is not valid JSON", err)
	}
	return h.validateStruct(dst)
}

func (h *Handlers) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return application.NewValidationError(fieldMessage(fe), err)
	}
	return application.NewValidationError("Request is invalid", err)
}

func fieldMessage(fe validator.FieldError) string {
	// Namespace starts with the struct name; callers know the body, not our types.
	field := fe.Namespace()
	if _, tail, ok := strings.Cut(field, "."); ok {
		field = tail
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

// pathID binds the {id} path segment and checks it is a UUID.
func pathID(r *http.Request) (string, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &raw, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", application.NewValidationError("Invalid order id", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", application.NewValidationError("Invalid order id", err)
	}
	return id.String(), nil
}

// queryParam binds one form-style query parameter into dest. Optional parameters
// need a pointer to a pointer so absence can be told apart from the zero value.
func queryParam(r *http.Request, name string, required bool, dest any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		return application.NewValidationError(fmt.Sprintf("Invalid query parameter %q", name), err)
	}
	return nil
}
