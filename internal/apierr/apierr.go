// Package apierr is the single error taxonomy for HTTP responses.
//
// Every pipeline stage and handler reports failures as an *Error. Anything
// else reaching Write (or a panic reaching Recovery) is rendered as a generic
// 500 so internal detail never leaves the process.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"funding-hub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	MessageInternal   = "Internal server error"
	MessageValidation = "Validation failed"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a client-facing failure. Err carries the internal cause and is
// only ever logged.
type Error struct {
	Status  int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func Validation(fields ...FieldError) *Error {
	return &Error{Status: http.StatusBadRequest, Message: MessageValidation, Fields: fields}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

func TooManyRequests(msg string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: msg}
}

// Internal wraps an unexpected failure. The message is always generic.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: MessageInternal, Err: err}
}

// FromBind converts a gin binding error into a validation failure.
func FromBind(err error) *Error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		fields := make([]FieldError, 0, len(ves))
		for _, fe := range ves {
			fields = append(fields, FieldError{Field: jsonName(fe), Message: describe(fe)})
		}
		return Validation(fields...)
	}
	return Validation(FieldError{Field: "body", Message: "must be a valid JSON object"})
}

// Write renders err as the uniform {message} body and aborts the chain.
func Write(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal(err)
	}
	if e.Status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "status", e.Status, "err", e.Err)
		_ = c.Error(e)
	}

	body := gin.H{"message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	c.AbortWithStatusJSON(e.Status, body)
}

// Recovery is the last line of defense: any panic becomes a generic 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.FromGin(c).Error("panic recovered", "panic", fmt.Sprint(rec))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MessageInternal})
	})
}

// NoRoute answers unknown paths with the uniform body.
func NoRoute(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Route not found"})
}

var registerOnce sync.Once

// UseJSONFieldNames makes gin's validator report json tag names, so field
// errors name "email" rather than "Email".
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func jsonName(fe validator.FieldError) string {
	if f := fe.Field(); f != "" {
		return f
	}
	return strings.ToLower(fe.StructField())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}
