package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const defaultProjectLimit = 10

func (h *Handler) ListProjects(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	items, err := h.projects.List(ctx, listQuery(c, defaultProjectLimit))
	if err != nil {
		writeError(ctx, c, span, err, "List projects failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "projects": items})
}

func (h *Handler) GetProject(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	p, err := h.projects.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, span, err, "Get project failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": p})
}

func (h *Handler) CreateProject(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	var p domain.Project
	if !bindJSON(ctx, c, span, &p) {
		return
	}
	created, err := h.projects.Create(ctx, currentUser(c), p)
	if err != nil {
		writeError(ctx, c, span, err, "Create project failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "project": created})
}

// UpdateProject applies a partial JSON document on top of the stored project.
func (h *Handler) UpdateProject(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	id := c.Param("id")
	p, err := h.projects.Get(ctx, id)
	if err != nil {
		writeError(ctx, c, span, err, "Update project failed")
		return
	}
	if !bindJSON(ctx, c, span, p) {
		return
	}
	p.ID = id

	updated, err := h.projects.Update(ctx, currentUser(c), *p)
	if err != nil {
		writeError(ctx, c, span, err, "Update project failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": updated})
}

func (h *Handler) DeleteProject(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	if err := h.projects.Delete(ctx, currentUser(c), c.Param("id")); err != nil {
		writeError(ctx, c, span, err, "Delete project failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Project deleted successfully"})
}

// UploadProjectImage stores the multipart `projectImage` file and returns its URL.
func (h *Handler) UploadProjectImage(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	file, err := h.readUpload(c, "projectImage")
	if err != nil {
		writeError(ctx, c, span, err, "Project image upload failed")
		return
	}
	url, err := h.projects.UploadImage(ctx, currentUser(c), file)
	if err != nil {
		writeError(ctx, c, span, err, "Project image upload failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"imageUrl": url}})
}
