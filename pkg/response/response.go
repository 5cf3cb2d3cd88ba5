// Package response renders the JSON envelope shared by every REST
// endpoint: {"success": bool, "data": ..., "error": {"code", "message"}}.
// The error codes here mirror the ones pushed over the websocket error
// event so clients handle both surfaces the same way.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *faultInfo  `json:"error,omitempty"`
}

type faultInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes data under a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes data under a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, envelope{
		Success: false,
		Error:   &faultInfo{Code: code, Message: message},
	})
}

// BadRequest writes a 400 envelope with code BAD_REQUEST.
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized writes a 401 envelope with code UNAUTHORIZED.
func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden writes a 403 envelope with code FORBIDDEN.
func Forbidden(c *gin.Context, message string) {
	fail(c, http.StatusForbidden, "FORBIDDEN", message)
}

// NotFound writes a 404 envelope with code NOT_FOUND.
func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, "NOT_FOUND", message)
}

// Conflict writes a 409 envelope with code CONFLICT.
func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, "CONFLICT", message)
}

// InternalError writes a 500 envelope with code INTERNAL_ERROR.
func InternalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
