package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/common/errs"
	"github.com/lyzr/petstore/common/logger"
)

// writeError maps domain errors to HTTP responses. Not-found resolves to
// 404, integrity violations to 409, everything else to 500 with the detail
// kept out of the response body.
func writeError(c echo.Context, log *logger.Logger, op string, err error) error {
	switch {
	case errs.IsNotFound(err):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": err.Error(),
		})
	case errs.IsIntegrity(err):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
		})
	default:
		log.Error("request failed", "op", op, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
		})
	}
}

// pathID parses the :id path parameter
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}
