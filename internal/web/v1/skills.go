package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const defaultSkillLimit = 100

func (h *Handler) ListSkills(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	q := listQuery(c, defaultSkillLimit)
	if len(q.Sort) == 0 {
		q.Sort = []domain.SortField{{Field: "level", Desc: true}}
	}
	items, err := h.skills.List(ctx, q)
	if err != nil {
		writeError(ctx, c, span, err, "List skills failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "skills": items})
}

func (h *Handler) ListSkillsByCategory(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	items, err := h.skills.ListByCategory(ctx, c.Param("category"))
	if err != nil {
		writeError(ctx, c, span, err, "List skills by category failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "skills": items})
}

func (h *Handler) GetSkill(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	sk, err := h.skills.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, span, err, "Get skill failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "skill": sk})
}

func (h *Handler) CreateSkill(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	sk := domain.Skill{Level: 80}
	if !bindJSON(ctx, c, span, &sk) {
		return
	}
	created, err := h.skills.Create(ctx, currentUser(c), sk)
	if err != nil {
		writeError(ctx, c, span, err, "Create skill failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "skill": created})
}

func (h *Handler) UpdateSkill(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	id := c.Param("id")
	sk, err := h.skills.Get(ctx, id)
	if err != nil {
		writeError(ctx, c, span, err, "Update skill failed")
		return
	}
	if !bindJSON(ctx, c, span, sk) {
		return
	}
	sk.ID = id

	updated, err := h.skills.Update(ctx, currentUser(c), *sk)
	if err != nil {
		writeError(ctx, c, span, err, "Update skill failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "skill": updated})
}

func (h *Handler) DeleteSkill(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	if err := h.skills.Delete(ctx, currentUser(c), c.Param("id")); err != nil {
		writeError(ctx, c, span, err, "Delete skill failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Skill deleted successfully"})
}
