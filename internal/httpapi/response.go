package httpapi

import (
	"errors"
	"net/http"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Count   *int              `json:"count,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, data any, msg string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Message: msg})
}

func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	c.JSON(http.StatusOK, Envelope{Success: true, Data: items, Count: &n})
}

// statusFor maps a service error to its HTTP status and client message.
// Internal failures never expose their cause.
func statusFor(err error) (int, Envelope) {
	var (
		verr *apperr.ValidationError
		nf   *apperr.NotFoundError
		cf   *apperr.ConflictError
		up   *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, Envelope{Error: verr.First(), Details: verr.Fields}
	case errors.As(err, &nf):
		return http.StatusNotFound, Envelope{Error: nf.Error()}
	case errors.As(err, &cf):
		return http.StatusBadRequest, Envelope{Error: cf.Error()}
	case errors.As(err, &up):
		return http.StatusInternalServerError, Envelope{Error: "Solution generation failed"}
	default:
		return http.StatusInternalServerError, Envelope{Error: "Server Error"}
	}
}

func respondError(c *gin.Context, log *logger.Logger, err error) {
	status, env := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, env)
}

var errBadJSON = apperr.Invalid("body", "must be a valid JSON object")
