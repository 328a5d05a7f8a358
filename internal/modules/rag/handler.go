package rag

import (
	"github.com/docspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type askDTO struct {
	Question string `json:"question" binding:"required"`
}

// RegisterRoutes wires the ask endpoint on an org-scoped router group.
func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	rg.POST("/ask", func(c *gin.Context) {
		if !svc.Enabled() {
			response.UnprocessableEntity(c, "AI provider is not configured")
			return
		}
		var dto askDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		answer, err := svc.Ask(c.Request.Context(), c.Param("orgID"), dto.Question)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, answer)
	})
}
