package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/container"
	"github.com/lyzr/petstore/cmd/petstore/handlers"
)

// RegisterCategoryRoutes registers the standalone category administration
// routes
func RegisterCategoryRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewCategoryHandler(c.CategoryService, c.Components.Logger)

	categories := e.Group("/category")
	{
		categories.POST("", h.CreateCategory)
		categories.GET("/:id", h.GetCategory)
		categories.PUT("/:id", h.RenameCategory)
		categories.PATCH("/:id", h.RenameCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}
}
