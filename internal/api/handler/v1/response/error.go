package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	StatusCode int    `json:"-"`
	Msg        string `json:"error"`
	Details    string `json:"details,omitempty"`
}

func (e *Err) Error() string {
	return e.Msg
}

func RenderErr(ctx *gin.Context, err *Err) {
	ctx.AbortWithStatusJSON(err.StatusCode, err)
}

// ErrValidation reports malformed input back to the caller with the
// validation details.
func ErrValidation(err error) *Err {
	return &Err{
		StatusCode: http.StatusBadRequest,
		Msg:        "Invalid data",
		Details:    err.Error(),
	}
}

func ErrBadRequest(err error) *Err {
	return &Err{
		StatusCode: http.StatusBadRequest,
		Msg:        err.Error(),
	}
}

func ErrNotFound(msg string) *Err {
	return &Err{
		StatusCode: http.StatusNotFound,
		Msg:        msg,
	}
}

func ErrTooManyRequests() *Err {
	return &Err{
		StatusCode: http.StatusTooManyRequests,
		Msg:        "Too many requests",
	}
}

// ErrInternalServerError logs the wrapped error with full context and
// returns a generic message, so internals never leak to callers.
func ErrInternalServerError(err error) *Err {
	zap.L().Error("internal server error", zap.Error(err))

	return &Err{
		StatusCode: http.StatusInternalServerError,
		Msg:        "Internal server error",
	}
}
