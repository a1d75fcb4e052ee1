package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
)

type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Response lets a handler pick a status other than 200.
type Response struct {
	Code int
	Body any
}

type HandlerFunc func(ctx *gin.Context) (any, *Error)

func BadRequest(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

func Internal(message string) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message}
}

// FromStore maps a store error onto a 404 or a 500.
func FromStore(err error, what string) *Error {
	if errors.Is(err, db.ErrNotFound) {
		return NotFound(what + " not found")
	}
	return Internal("could not load " + what)
}

func Created(body any) Response {
	return Response{Code: http.StatusCreated, Body: body}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, err := h(ctx)
		if err != nil {
			ctx.JSON(err.Code, gin.H{"error": err.Message})
			return
		}

		switch r := result.(type) {
		case nil:
			ctx.Status(http.StatusNoContent)
		case Response:
			ctx.JSON(r.Code, r.Body)
		default:
			ctx.JSON(http.StatusOK, result)
		}
	}
}
