// Package web holds the request context shared by API handlers.
package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/tools"
)

// Context wraps echo.Context with additional fields
type Context struct {
	echo.Context
	L *zap.Logger
}

// HandlerFunc is a handler function that uses our custom Context
type HandlerFunc func(ctx Context) error

// Wrap wraps a handler function to use our custom context
func Wrap(h HandlerFunc, l *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)

		ctx := Context{
			Context: c,
			L:       l.With(zap.String("request_id", rid)),
		}

		return h(ctx)
	}
}

// RequestID returns the ID the RequestID middleware assigned, if any
func (c Context) RequestID() string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// Error sends an error response
func (c Context) Error(status int, message string) error {
	return c.JSON(status, map[string]string{
		"error": message,
	})
}

// BadRequest sends a 400 error
func (c Context) BadRequest(message string) error {
	return c.Error(http.StatusBadRequest, message)
}

// OK sends a 200 response with data
func (c Context) OK(data any) error {
	return c.JSON(http.StatusOK, data)
}

// Fail sends err with the status it maps to and a message fit for the caller
func (c Context) Fail(err error) error {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		c.L.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		c.L.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Error(status, tools.UserMessage(err))
}

// Status maps an error to an HTTP status. Input mistakes are 400 and unknown tools 404. GitHub's own 403 and 404
// pass through, and every other upstream failure is 502
func Status(err error) int {
	var (
		tie        tools.ToolInputError
		apiErr     *githubapi.APIError
		networkErr *githubapi.NetworkError
		validErr   *githubapi.ValidationError
	)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusNotFound {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.As(err, &networkErr), errors.As(err, &validErr):
		return http.StatusBadGateway
	case errors.As(err, &tie), errors.Is(err, githubapi.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
