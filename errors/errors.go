package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Machine-readable error codes carried in the response envelope.
const (
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeStoreFailure = "store_failure"
	CodeBadRequest   = "bad_request"
	CodeRateLimited  = "rate_limited"
)

// Error is an error that knows which HTTP status and code it maps to.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
	Code    string `json:"code"`
}

func (e *Error) Error() string {
	return e.Message
}

// New returns an Error whose code is derived from status.
func New(message string, status int) *Error {
	return &Error{Message: message, Status: status, Code: codeFor(status)}
}

var (
	ErrReportNotFound      = &Error{Message: "report not found", Status: http.StatusNotFound, Code: CodeNotFound}
	ErrAlreadyVoted        = &Error{Message: "already voted", Status: http.StatusConflict, Code: CodeConflict}
	ErrInternalServerError = &Error{Message: "internal server error", Status: http.StatusInternalServerError, Code: CodeStoreFailure}
)

type ErrorKind int

const (
	KindStoreFailure ErrorKind = iota
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return CodeNotFound
	case KindConflict:
		return CodeConflict
	default:
		return CodeStoreFailure
	}
}

// Kind classifies err. Anything that is not a known domain error is a store failure.
func Kind(err error) ErrorKind {
	switch {
	case stderrors.Is(err, ErrReportNotFound):
		return KindNotFound
	case stderrors.Is(err, ErrAlreadyVoted):
		return KindConflict
	default:
		return KindStoreFailure
	}
}

// FromDomain converts err into the Error handed to the client. Store failures are
// replaced by ErrInternalServerError so driver messages never leak.
func FromDomain(err error) *Error {
	switch Kind(err) {
	case KindNotFound:
		return ErrReportNotFound
	case KindConflict:
		return ErrAlreadyVoted
	default:
		return ErrInternalServerError
	}
}

// ErrorHandler answers requests rejected by the rate limiter.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	e := &Error{
		Message: fmt.Sprintf("too many requests, try again in %s", time.Until(info.ResetTime).Round(time.Second)),
		Status:  http.StatusTooManyRequests,
		Code:    CodeRateLimited,
	}
	c.AbortWithStatusJSON(e.Status, gin.H{
		"message": "",
		"data":    nil,
		"errors":  e,
		"status":  http.StatusText(e.Status),
	})
}

func codeFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	}
	if status >= 500 {
		return CodeStoreFailure
	}
	return CodeBadRequest
}
