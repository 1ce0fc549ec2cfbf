package model

// ErrorResponse defines error response structure.
// Detail repeats the message under the key older clients read.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResponse creates an error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  message,
	}
}

// SuccessResponse defines success response structure.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
