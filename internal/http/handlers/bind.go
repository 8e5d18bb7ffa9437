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
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// Bind decodes a JSON or form-encoded body into out (chosen by Content-Type)
// and runs its binding rules. On failure it writes a 400 and returns false.
func Bind(ctx *gin.Context, out interface{}) bool {
	return bind(ctx, out, false)
}

// BindPartial is Bind for patch-style payloads where an empty body means
// "no fields supplied".
func BindPartial(ctx *gin.Context, out interface{}) bool {
	return bind(ctx, out, true)
}

func bind(ctx *gin.Context, out interface{}, allowEmpty bool) bool {
	err := ctx.ShouldBind(out)
	if err == nil {
		return true
	}

	if allowEmpty && errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", gin.H{"limit": tooLarge.Limit})
		return false
	}

	RespondBadRequest(ctx, "Invalid request body", parseBindError(err, out))

	return false
}

func parseBindError(err error, out interface{}) interface{} {
	rootType := baseStructType(out)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   wireName(rootType, fieldError.StructField()),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := wireName(rootType, unmatchedTypeError.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			},
		}
	}

	if errors.Is(err, io.EOF) {
		return gin.H{"reason": "empty body"}
	}

	return gin.H{"reason": err.Error()}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// wireName maps a Go field name to the name clients send (json tag, then
// form tag). Request payloads are flat, so only top-level fields are mapped.
func wireName(rootType reflect.Type, goName string) string {
	goName = strings.TrimSpace(goName)
	if rootType == nil || goName == "" {
		return goName
	}

	sf, ok := rootType.FieldByName(goName)
	if !ok {
		// json errors already report the wire name
		return goName
	}

	for _, tagKey := range []string{"json", "form"} {
		name, _, _ := strings.Cut(sf.Tag.Get(tagKey), ",")
		if name != "" && name != "-" {
			return name
		}
	}

	return sf.Name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
