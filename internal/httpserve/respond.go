package httpserve

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Errors  []string `json:"errors,omitempty"`
}

func respondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, successEnvelope{Success: true, Data: data})
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorEnvelope{Success: false, Error: message})
}

func respondValidation(c echo.Context, message string, errs []string) error {
	return c.JSON(http.StatusBadRequest, errorEnvelope{Success: false, Error: message, Errors: errs})
}
