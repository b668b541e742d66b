package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/container"
	"github.com/lyzr/petstore/cmd/petstore/handlers"
)

// RegisterTagRoutes registers the standalone tag administration routes
func RegisterTagRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTagHandler(c.TagService, c.Components.Logger)

	tags := e.Group("/tag")
	{
		tags.POST("", h.CreateTag)
		tags.GET("/:id", h.GetTag)
		tags.PUT("/:id", h.RenameTag)
		tags.PATCH("/:id", h.RenameTag)
		tags.DELETE("/:id", h.DeleteTag)
	}
}
