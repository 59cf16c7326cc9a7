package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/lankawatch/errors"
)

// JSON writes the standard envelope. A non-nil err is rendered as
// {"message", "code"}; errors that are not *errs.Error take their code from status.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	var e *errs.Error
	if err != nil {
		var ok bool
		if e, ok = err.(*errs.Error); !ok {
			e = errs.New(err.Error(), status)
		}
	}

	responsedata := gin.H{
		"message": message,
		"data":    data,
		"errors":  e,
		"status":  http.StatusText(status),
	}
	c.JSON(status, responsedata)
}
