package app

import (
	"github.com/docspace/core/internal/middleware"
	"github.com/docspace/core/internal/models"
	"github.com/docspace/core/internal/modules/auth"
	"github.com/docspace/core/internal/modules/document"
	"github.com/docspace/core/internal/modules/health"
	"github.com/docspace/core/internal/modules/indexer"
	"github.com/docspace/core/internal/modules/org"
	"github.com/docspace/core/internal/modules/rag"
	pkgredis "github.com/docspace/core/internal/pkg/redis"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client, docSvc *document.Service) {
	r := a.router
	db := a.db

	authMW := middleware.Auth(a.registry)

	api := r.Group(apiPrefix)
	api.Use(middleware.RateLimit(rc.Raw()))
	api.Use(middleware.Idempotence(rc.Raw()))

	health.RegisterRoutes(api, db, rc, a.registry, a.coord, a.sched, authMW)

	authSvc := auth.NewService(db, a.registry, a.cfg.SessionTTL())
	auth.RegisterRoutes(api.Group("/auth"), authSvc, a.registry, authMW)

	orgSvc := org.NewService(db)
	orgs := api.Group("/organizations", authMW)
	org.RegisterRoutes(orgs, orgSvc)

	// Org-scoped feature routes share the membership check.
	scoped := orgs.Group("/:orgID", org.RequireRole(orgSvc, models.RoleMember))
	document.RegisterRoutes(scoped, docSvc)
	rag.RegisterRoutes(scoped, rag.NewService(a.cfg.AI, docSvc, rag.WithLogger(a.logger)))
	indexer.RegisterRoutes(scoped, a.coord, org.RequireRole(orgSvc, models.RoleAdmin))
}
