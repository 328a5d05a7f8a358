package indexer

import (
	"context"

	"github.com/docspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes exposes index lifecycle status and an explicit rebuild
// trigger on an org-scoped router group (":orgID" must be bound upstream).
func RegisterRoutes(rg *gin.RouterGroup, coord *Coordinator, requireAdmin gin.HandlerFunc) {
	rg.GET("/index", func(c *gin.Context) {
		orgID := c.Param("orgID")
		state := coord.Status(orgID)
		response.OK(c, gin.H{
			"state":    state,
			"building": coord.IsBuilding(orgID),
		})
	})

	rg.POST("/index/rebuild", requireAdmin, func(c *gin.Context) {
		orgID := c.Param("orgID")
		// Rebuilds run detached; poll the status endpoint for the outcome.
		go func() {
			_ = coord.Build(context.Background(), orgID, true)
		}()
		response.OK(c, gin.H{"message": "rebuild triggered"})
	})
}
