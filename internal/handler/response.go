package handler

import (
	"github.com/labstack/echo/v4"
)

func SuccessResponse(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func ErrorResponse(c echo.Context, code int, message, errorCode, details string) error {
	resp := map[string]interface{}{
		"success": false,
		"message": message,
		"error": map[string]interface{}{
			"code": errorCode,
		},
	}
	if details != "" {
		resp["error"].(map[string]interface{})["details"] = details
	}
	return c.JSON(code, resp)
}
