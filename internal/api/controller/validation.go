package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const nonFieldErrors = "non_field_errors"

var registerTagNameOnce sync.Once

// useJSONFieldNames 让校验错误使用 JSON 字段名而不是 Go 字段名
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindErrors 把 ShouldBindJSON 的错误转换成 {field: [messages]}
func bindErrors(err error) map[string][]string {
	out := make(map[string][]string)

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe))
		}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = nonFieldErrors
		}
		out[field] = append(out[field], fmt.Sprintf("Invalid type: expected %s, got %s.", jsonKind(typeErr.Type), typeErr.Value))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		out[nonFieldErrors] = []string{"JSON parse error - " + err.Error()}
	case errors.Is(err, io.EOF):
		out[nonFieldErrors] = []string{"Request body must be a JSON object."}
	default:
		out[nonFieldErrors] = []string{err.Error()}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	default:
		return "number"
	}
}
