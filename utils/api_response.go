package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewApiResponse(statusCode int, data any, message string) ApiResponse {
	if data == nil {
		data = struct{}{}
	}
	if message == "" {
		message = "Success"
	}
	return ApiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < http.StatusBadRequest,
	}
}

func WriteResponse(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, NewApiResponse(statusCode, data, message))
}

// AsApiError returns err as an *ApiError, turning anything unclassified into
// a 500 that still wraps the underlying error.
func AsApiError(err error) *ApiError {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("Something went wrong", err)
}

// WriteError aborts the request with the error envelope. 5xx causes are
// attached to the gin context so the access log records them.
func WriteError(c *gin.Context, err error) {
	apiErr := AsApiError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}
