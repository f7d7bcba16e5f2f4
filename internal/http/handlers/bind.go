package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

const unknownFieldPrefix = "json: unknown field "

func init() {
	// request bodies are explicit structs; anything extra is a client bug
	binding.EnableDecoderDisallowUnknownFields = true

	// report validation failures under the json name the client sent
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonTagName)
	}
}

func jsonTagName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	}
	return name
}

// BindJSON decodes and validates the body into out, answering 400 (or 413
// for oversized bodies) itself when that fails.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
		return false
	}

	RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err))
	return false
}

func bindErrorDetails(err error) gin.H {
	var (
		validationErrs validator.ValidationErrors
		syntaxErr      *json.SyntaxError
		typeErr        *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &validationErrs):
		fields := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, FieldError{
				Field:   fieldPath(fe),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}

	case errors.As(err, &syntaxErr):
		return gin.H{"json": "invalid_json_syntax", "offset": syntaxErr.Offset}

	case errors.As(err, &typeErr):
		// encoding/json already reports the path in json names
		field := typeErr.Field
		return singleField("invalid_json_type", field, FieldError{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
		})

	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		field := strings.Trim(strings.TrimPrefix(err.Error(), unknownFieldPrefix), `"`)
		return singleField("unknown_field", field, FieldError{
			Field:   field,
			Rule:    "unknown",
			Message: "is not a recognised field",
		})

	case errors.Is(err, io.EOF):
		return gin.H{"json": "empty_body"}
	}

	return gin.H{"reason": err.Error()}
}

func singleField(kind, field string, fe FieldError) gin.H {
	return gin.H{"json": kind, "field": field, "fields": []FieldError{fe}}
}

// fieldPath drops the root struct name from the namespace, so nested
// failures read like "instructor.email".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found || path == "" {
		return fe.Field()
	}
	return path
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	}

	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}
