package service

import (
	"errors"
	"strings"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid   = errors.New("参数错误")
	ErrInvalidKind    = errors.New("不支持的互动类型")
	ErrPostNotFound   = errors.New("帖子不存在")
	ErrForbidden      = errors.New("无权修改该帖子")
	ErrConflict       = errors.New("数据已被修改，请刷新后重试")
	ErrUnavailable    = errors.New("存储暂不可用")
	UnauthorizedError = errors.New("请先登录")
	UnExpectedError   = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:   BadRequest,
	ErrInvalidKind:    BadRequest,
	ErrPostNotFound:   NotFound,
	ErrForbidden:      Forbidden,
	ErrConflict:       Conflict,
	ErrUnavailable:    InternalServerError,
	UnauthorizedError: Unauthorized,
	UnExpectedError:   InternalServerError,
}

// CodeOf 沿错误链查找业务码，找不到时返回 false
func CodeOf(err error) (int, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return BadRequest, true
	}
	for sentinel, code := range ErrorMap {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return 0, false
}

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 一次校验中收集到的全部字段错误
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

// Has 是否包含指定字段的错误
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
