package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondAppError maps a typed application error to its HTTP status.
// Anything else is reported as a 500.
func RespondAppError(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		RespondError(c, appErr.Code, appErr)
		return
	}
	RespondError(c, http.StatusInternalServerError, err)
}
