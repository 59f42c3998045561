package apifytest

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/apifykit/errors"
)

// dataResponse is the envelope the API wraps single objects in.
type dataResponse struct {
	Data any `json:"data"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, dataResponse{Data: data})
}

// respondError writes the API error envelope {"error":{"type","message"}}.
func respondError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, errors.ErrorResponse{
		Error: errors.ErrorBody{Type: errType, Message: message},
	})
}
