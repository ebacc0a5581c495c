package apperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standard API envelope for every handler in the dispatch core.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// ErrorResponse writes the appropriate envelope for err: its own status and
// code if it's an *AppError, or a generic 500 otherwise.
func ErrorResponse(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   &ErrorInfo{Code: "INTERNAL", Message: "internal server error"},
		})
		return
	}
	c.JSON(appErr.HTTPStatus, Response{
		Success: false,
		Error:   &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
	})
}
