package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/xiebiao/booksapi/pkg/response"
)

func init() {
	// 错误详情中使用json字段名,而不是Go字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	}
}

// BindErrors 把gin绑定错误转换为字段级错误详情
// fallbackField用于无法从错误中得知字段名的情况(如query参数类型错误)
//
// 能识别的错误:
//   - validator.ValidationErrors:binding tag校验失败
//   - *json.UnmarshalTypeError:字段类型不匹配
//   - *json.SyntaxError / io.EOF:请求体不是合法JSON或为空
//   - *strconv.NumError:query/path参数不是整数
//
// 其它错误返回nil,由调用方按内部错误处理
func BindErrors(err error, fallbackField string) []response.FieldError {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		numErr    *strconv.NumError
	)

	switch {
	case errors.As(err, &verrs):
		out := make([]response.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, response.FieldError{
				Field:   fe.Field(),
				Message: fe.Field() + " " + tagMessage(fe),
				Type:    fe.Tag(),
			})
		}
		return out

	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = fallbackField
		}
		return []response.FieldError{{
			Field:   field,
			Message: fmt.Sprintf("%s must be of type %s", field, jsonTypeName(typeErr.Type)),
			Type:    "type_error",
		}}

	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return []response.FieldError{{
			Field:   "body",
			Message: "request body must be a valid JSON object",
			Type:    "json_invalid",
		}}

	case errors.As(err, &numErr):
		return []response.FieldError{intParsingError(fallbackField)}
	}
	return nil
}

// EmptyIntParams 整数query参数出现但值为空时返回错误详情
// gin会把空字符串绑定为0,需要在绑定前拦截
func EmptyIntParams(q url.Values, fields ...string) []response.FieldError {
	var out []response.FieldError
	for _, field := range fields {
		if vs, ok := q[field]; ok && len(vs) > 0 && strings.TrimSpace(vs[0]) == "" {
			out = append(out, intParsingError(field))
		}
	}
	return out
}

func intParsingError(field string) response.FieldError {
	return response.FieldError{
		Field:   field,
		Message: fmt.Sprintf("%s must be an integer", field),
		Type:    "int_parsing",
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Bool:
		return "boolean"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.String()
	}
}
