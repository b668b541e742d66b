package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/cmd/petstore/container"
	"github.com/lyzr/petstore/cmd/petstore/handlers"
)

// RegisterPetRoutes registers the pet aggregate and image upload routes
func RegisterPetRoutes(e *echo.Echo, c *container.Container) {
	pet := handlers.NewPetHandler(c.PetService, c.Components.Logger)
	photo := handlers.NewPhotoHandler(c.PhotoService, c.Components.Logger)

	pets := e.Group("/pet")
	{
		pets.POST("", pet.CreatePet)
		pets.GET("/:id", pet.GetPet)
		pets.PUT("/:id", pet.UpdatePet)
		pets.PATCH("/:id", pet.ModifyPet)
		pets.DELETE("/:id", pet.DeletePet)
		pets.POST("/:id/uploadImage", photo.UploadImage)
		pets.GET("/:id/photos", photo.ListImages)
	}
}
