package response

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	Created             = 201
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

// Success 成功返回封装
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// SuccessCreated 新建资源成功
func SuccessCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.Response{
		Code:    Created,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装，HTTP 状态码与业务码一致
func Fail(c *gin.Context, code int, message string) {
	FailWithData(c, code, message, nil)
}

func FailWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, dto.Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		fields := make([]dto.FieldErrorDTO, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			fields = append(fields, dto.FieldErrorDTO{Field: f.Field, Message: f.Message})
		}
		FailWithData(c, BadRequest, "参数错误", dto.ValidationErrorsDTO{Errors: fields})
		return
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	var syntaxError *json.SyntaxError
	if errors.As(err, &unmarshalTypeError) || errors.As(err, &syntaxError) {
		Fail(c, BadRequest, "Json错误")
		return
	}

	code, ok := service.CodeOf(err)
	if !ok {
		log.ErrorContext(c.Request.Context(), "Error", "err", err)
		Fail(c, InternalServerError, service.UnExpectedError.Error())
		return
	}
	if code >= InternalServerError {
		log.ErrorContext(c.Request.Context(), "Error", "err", err)
		Fail(c, code, service.UnExpectedError.Error())
		return
	}
	Fail(c, code, messageOf(err))
}

// messageOf 返回命中的哨兵错误文案，不把底层细节暴露给客户端
func messageOf(err error) string {
	for sentinel := range service.ErrorMap {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
