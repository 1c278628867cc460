package v1

import (
	"github.com/gin-gonic/gin"
)

// BaseNumberRouteHandler defines the BaseNumber endpoints.
type BaseNumberRouteHandler interface {
	Allocate(c *gin.Context)
	Current(c *gin.Context)
	Parse(c *gin.Context)
}

// TruthFileRouteHandler defines the truth-file endpoints.
type TruthFileRouteHandler interface {
	ValidateFields(c *gin.Context)
	GeneratePaths(c *gin.Context)
	Folders(c *gin.Context)
}

// IntakeRouteHandler defines the intake endpoints.
type IntakeRouteHandler interface {
	OpenEnquiry(c *gin.Context)
	Advance(c *gin.Context)
}

func registerBaseNumberRoutes(group *gin.RouterGroup, handler BaseNumberRouteHandler) {
	group.POST("/allocate-base-number", handler.Allocate)
	group.GET("/base-numbers/current", handler.Current)
	group.GET("/base-numbers/parse", handler.Parse)
}

func registerTruthFileRoutes(group *gin.RouterGroup, handler TruthFileRouteHandler) {
	group.POST("/validate-fields", handler.ValidateFields)
	group.POST("/generate-paths", handler.GeneratePaths)
	group.GET("/folders", handler.Folders)
}

func registerIntakeRoutes(group *gin.RouterGroup, handler IntakeRouteHandler) {
	group.POST("/enquiries", handler.OpenEnquiry)
	group.POST("/identifiers/advance", handler.Advance)
}
