package auth

import (
	"errors"

	"github.com/docspace/core/internal/middleware"
	"github.com/docspace/core/internal/modules/sessions"
	"github.com/docspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the auth endpoints. Login and register are public;
// everything else requires a live session.
func RegisterRoutes(rg *gin.RouterGroup, svc *Service, registry *sessions.Registry, authMW gin.HandlerFunc) {
	rg.POST("/register", func(c *gin.Context) {
		var dto registerDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		u, err := svc.Register(dto.Email, dto.Name, dto.Password)
		if err != nil {
			if errors.Is(err, errEmailTaken) {
				response.Conflict(c, err.Error())
				return
			}
			response.InternalError(c, err)
			return
		}
		response.Created(c, u)
	})

	rg.POST("/login", func(c *gin.Context) {
		var dto loginDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		token, u, err := svc.Login(c.Request.Context(), dto.Email, dto.Password, dto.OrgSlug,
			c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			switch {
			case errors.Is(err, errInvalidCredentials):
				response.Unauthorized(c)
			case errors.Is(err, errNotAMember):
				response.ForbiddenMsg(c, err.Error())
			default:
				response.InternalError(c, err)
			}
			return
		}
		response.OK(c, gin.H{"token": token, "user": u})
	})

	authed := rg.Group("", authMW)

	authed.POST("/logout", func(c *gin.Context) {
		registry.Destroy(c.Request.Context(), middleware.CurrentSessionID(c))
		response.NoContent(c)
	})

	authed.POST("/logout-all", func(c *gin.Context) {
		n := registry.DestroyAllForUser(c.Request.Context(), middleware.CurrentUserID(c))
		response.OK(c, gin.H{"revoked": n})
	})

	authed.GET("/sessions", func(c *gin.Context) {
		response.OK(c, registry.ForUser(middleware.CurrentUserID(c)))
	})

	authed.DELETE("/sessions/:id", func(c *gin.Context) {
		id := c.Param("id")
		// Only the owner may revoke; unknown or foreign ids are both 404.
		s, ok := registry.Get(id)
		if !ok || s.UserID != middleware.CurrentUserID(c) {
			response.NotFound(c)
			return
		}
		registry.Destroy(c.Request.Context(), id)
		response.NoContent(c)
	})
}
