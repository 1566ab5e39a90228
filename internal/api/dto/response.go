package dto

// Response 统一返回结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ValidationErrorsDTO 参数校验失败时 data 的内容
type ValidationErrorsDTO struct {
	Errors []FieldErrorDTO `json:"errors"`
}

type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
