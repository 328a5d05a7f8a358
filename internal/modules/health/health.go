package health

import (
	"net/http"

	"github.com/docspace/core/internal/modules/indexer"
	"github.com/docspace/core/internal/modules/sessions"
	"github.com/docspace/core/internal/pkg/cron"
	pkgredis "github.com/docspace/core/internal/pkg/redis"
	"github.com/docspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes wires the public health check and the admin views over the
// cron scheduler, the session registry and the index coordinator.
func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, rc *pkgredis.Client,
	registry *sessions.Registry, coord *indexer.Coordinator,
	sched *cron.Scheduler, authMW gin.HandlerFunc) {

	rg.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		dbOK := err == nil && sqlDB.Ping() == nil
		redisOK := rc.Ping(c.Request.Context()) == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":               status,
			"database":             dbOK,
			"redis":                redisOK,
			"live_sessions":        registry.Len(),
			"active_organizations": len(registry.ActiveOrganizations()),
			"ready_indexes":        len(coord.ReadyOrganizations()),
		})
	})

	admin := rg.Group("/health", authMW)

	admin.GET("/sessions", func(c *gin.Context) {
		orgs := registry.ActiveOrganizations()
		counts := make(map[string]int, len(orgs))
		for _, orgID := range orgs {
			counts[orgID] = registry.Tracker().SessionCount(orgID)
		}
		response.OK(c, gin.H{
			"total":         registry.Len(),
			"organizations": counts,
		})
	})

	admin.GET("/indexes", func(c *gin.Context) {
		response.OK(c, coord.States())
	})

	cronGroup := admin.Group("/cron")
	{
		cronGroup.GET("", func(c *gin.Context) {
			items := sched.List()
			byName := make(map[string]cron.ListItem, len(items))
			for _, item := range items {
				byName[item.Name] = item
			}
			response.OK(c, byName)
		})

		cronGroup.POST("/run/:name", func(c *gin.Context) {
			if err := sched.Run(c.Request.Context(), c.Param("name")); err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, gin.H{"message": "job triggered"})
		})

		cronGroup.GET("/task/:name", func(c *gin.Context) {
			result, err := sched.GetTask(c.Param("name"))
			if err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, result)
		})
	}
}
