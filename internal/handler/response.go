package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/localbid-backend/internal/apperr"
	"github.com/shinyyama/localbid-backend/internal/repository"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// respondError renders err as an ErrorResponse. Errors that are not AppErrors
// are logged and reported as INTERNAL.
func respondError(c echo.Context, err error) error {
	ae := apperr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
	}
	return c.JSON(ae.Status, NewErrorResponse(ae.Code, ae.Message))
}

func currentUserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get("uid").(uint64)
	return uid, ok && uid != 0
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse(apperr.CodeUnauthorized, "missing uid"))
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}

func pageFromQuery(c echo.Context) repository.Page {
	number, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	return repository.Page{Number: number, Size: size}.Normalize()
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("invalid json")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
