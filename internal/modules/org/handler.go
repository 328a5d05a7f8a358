package org

import (
	"errors"

	"github.com/docspace/core/internal/middleware"
	"github.com/docspace/core/internal/models"
	"github.com/docspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// RequireRole returns a middleware enforcing a minimum membership role for
// the ":orgID" route parameter. Role checks are plain attribute lookups.
func RequireRole(svc *Service, minRole string) gin.HandlerFunc {
	rank := map[string]int{models.RoleMember: 1, models.RoleAdmin: 2, models.RoleOwner: 3}
	return func(c *gin.Context) {
		orgID := c.Param("orgID")
		role, err := svc.Role(orgID, middleware.CurrentUserID(c))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if role == "" || rank[role] < rank[minRole] {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// RegisterRoutes wires organization, membership and invitation endpoints.
// All routes assume the auth middleware already ran.
func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	rg.POST("", func(c *gin.Context) {
		var dto createOrgDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		org, err := svc.Create(middleware.CurrentUserID(c), dto.Name, dto.Slug, dto.Description)
		if err != nil {
			if errors.Is(err, errSlugTaken) {
				response.Conflict(c, err.Error())
				return
			}
			response.InternalError(c, err)
			return
		}
		response.Created(c, org)
	})

	rg.GET("", func(c *gin.Context) {
		orgs, err := svc.ListForUser(middleware.CurrentUserID(c))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, orgs)
	})

	rg.POST("/invitations/accept", func(c *gin.Context) {
		var dto acceptInviteDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		member, err := svc.Accept(dto.Token, middleware.CurrentUserID(c))
		if err != nil {
			switch {
			case errors.Is(err, errInviteExpired), errors.Is(err, errInviteAccepted), errors.Is(err, errAlreadyMember):
				response.Conflict(c, err.Error())
			default:
				response.InternalError(c, err)
			}
			return
		}
		if member == nil {
			response.NotFoundMsg(c, "invitation not found")
			return
		}
		response.OK(c, member)
	})

	scoped := rg.Group("/:orgID", RequireRole(svc, models.RoleMember))

	scoped.GET("", func(c *gin.Context) {
		org, err := svc.Get(c.Param("orgID"))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if org == nil {
			response.NotFound(c)
			return
		}
		response.OK(c, org)
	})

	scoped.GET("/members", func(c *gin.Context) {
		members, err := svc.ListMembers(c.Param("orgID"))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, members)
	})

	admin := rg.Group("/:orgID", RequireRole(svc, models.RoleAdmin))

	admin.PATCH("", func(c *gin.Context) {
		var dto updateOrgDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		org, err := svc.Update(c.Param("orgID"), dto.Name, dto.Description)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if org == nil {
			response.NotFound(c)
			return
		}
		response.OK(c, org)
	})

	admin.POST("/invitations", func(c *gin.Context) {
		var dto inviteDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		inv, err := svc.Invite(c.Param("orgID"), middleware.CurrentUserID(c), dto.Email, dto.Role)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.Created(c, inv)
	})

	admin.DELETE("/members/:userID", func(c *gin.Context) {
		if err := svc.RemoveMember(c.Param("orgID"), c.Param("userID")); err != nil {
			if errors.Is(err, errLastOwner) {
				response.Conflict(c, err.Error())
				return
			}
			response.InternalError(c, err)
			return
		}
		response.NoContent(c)
	})

	owner := rg.Group("/:orgID", RequireRole(svc, models.RoleOwner))

	owner.DELETE("", func(c *gin.Context) {
		if err := svc.Delete(c.Param("orgID")); err != nil {
			response.InternalError(c, err)
			return
		}
		response.NoContent(c)
	})
}
