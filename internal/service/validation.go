package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// postInput 合并后的帖子字段，create 与 update 共用同一套规则
type postInput struct {
	Title    string   `json:"title" validate:"required,max=120"`
	Content  string   `json:"content" validate:"required"`
	Excerpt  string   `json:"excerpt" validate:"max=200"`
	Tags     []string `json:"tags" validate:"max=5,dive,max=30"`
	ImageURL *string  `json:"imageUrl" validate:"omitempty,max=512,url"`
}

type commentInput struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// validateStruct 收集全部字段错误，而不是遇到第一个就返回
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}

	fields := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("最多 %s 项", fe.Param())
		}
		return fmt.Sprintf("长度不能超过 %s", fe.Param())
	case "url":
		return "不是合法的 URL"
	default:
		return fmt.Sprintf("校验失败，规则 [%s]", fe.Tag())
	}
}
