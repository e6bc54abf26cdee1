package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/middleware"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      apperror.Code     `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

var codeByStatus = map[int]apperror.Code{
	http.StatusBadRequest:   apperror.CodeValidation,
	http.StatusUnauthorized: apperror.CodeUnauthorized,
	http.StatusForbidden:    apperror.CodeForbidden,
	http.StatusNotFound:     apperror.CodeNotFound,
	http.StatusConflict:     apperror.CodeConflict,
	http.StatusGone:         apperror.CodeGone,
}

// ErrorHandler is the echo HTTPErrorHandler. It renders apperror values,
// validator errors and echo's own errors in one shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	log := logger.FromEcho(c)

	resp, status := toResponse(err)
	resp.RequestID = middleware.RequestID(c)

	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err), zap.String("path", c.Path()))
	} else {
		log.Debug("Request rejected", zap.Error(err), zap.Int("status", status))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		log.Error("Failed to write error response", zap.Error(err))
	}
}

func toResponse(err error) (ErrorResponse, int) {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		fields := make(map[string]string, len(invalid))
		for _, fe := range invalid {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		return ErrorResponse{Error: "validation failed", Code: apperror.CodeValidation, Fields: fields}, http.StatusBadRequest
	}

	if e, ok := apperror.As(err); ok {
		return ErrorResponse{Error: e.Message, Code: e.Code, Fields: e.Fields}, e.Status()
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
			msg = s
		}
		code, ok := codeByStatus[he.Code]
		if !ok {
			code = apperror.CodeInternal
			if he.Code < http.StatusInternalServerError {
				code = apperror.CodeValidation
			}
		}
		return ErrorResponse{Error: msg, Code: code}, he.Code
	}

	return ErrorResponse{Error: "internal server error", Code: apperror.CodeInternal}, http.StatusInternalServerError
}
