package document

import (
	"strings"

	"github.com/docspace/core/internal/middleware"
	"github.com/docspace/core/internal/models"
	"github.com/docspace/core/internal/pkg/pagination"
	"github.com/docspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires document endpoints on an org-scoped router group
// (":orgID" must be bound upstream, membership already checked).
func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	rg.POST("/documents", func(c *gin.Context) {
		var dto createDocumentDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		doc, err := svc.Create(c.Param("orgID"), middleware.CurrentUserID(c), dto)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.Created(c, doc)
	})

	rg.GET("/documents", func(c *gin.Context) {
		q := pagination.FromContext(c)
		var docs []models.DocumentModel
		page, err := pagination.Paginate(svc.Query(c.Param("orgID")), q, &docs)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.Paged(c, docs, page)
	})

	rg.GET("/documents/:id", func(c *gin.Context) {
		doc, err := svc.Get(c.Param("orgID"), c.Param("id"))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if doc == nil {
			response.NotFound(c)
			return
		}
		response.OK(c, doc)
	})

	rg.GET("/documents/:id/preview", func(c *gin.Context) {
		doc, err := svc.Get(c.Param("orgID"), c.Param("id"))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if doc == nil {
			response.NotFound(c)
			return
		}
		html, err := svc.RenderPreview(doc)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, gin.H{"html": html})
	})

	rg.PATCH("/documents/:id", func(c *gin.Context) {
		var dto updateDocumentDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		doc, err := svc.Update(c.Param("orgID"), c.Param("id"), dto)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if doc == nil {
			response.NotFound(c)
			return
		}
		response.OK(c, doc)
	})

	rg.DELETE("/documents/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Param("orgID"), c.Param("id")); err != nil {
			response.InternalError(c, err)
			return
		}
		response.NoContent(c)
	})

	rg.GET("/search", func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			response.BadRequest(c, "query parameter q is required")
			return
		}
		hits, servedBy, err := svc.Search(c.Request.Context(), c.Param("orgID"), q, 20)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		c.Header("x-ds-served-by", servedBy)
		response.OK(c, searchResponse{Hits: hits, ServedBy: servedBy})
	})
}
