package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// SubmitContact is the public contact form endpoint.
func (h *Handler) SubmitContact(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	var in domain.Contact
	if !bindJSON(ctx, c, span, &in) {
		return
	}
	if _, err := h.contacts.Submit(ctx, in); err != nil {
		writeError(ctx, c, span, err, "Contact submission failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Your message has been sent successfully"})
}

func (h *Handler) ListContacts(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	items, err := h.contacts.List(ctx, currentUser(c), listQuery(c, 0))
	if err != nil {
		writeError(ctx, c, span, err, "List contacts failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "contacts": items})
}

func (h *Handler) GetContact(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	item, err := h.contacts.Get(ctx, currentUser(c), c.Param("id"))
	if err != nil {
		writeError(ctx, c, span, err, "Get contact failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "contact": item})
}

func (h *Handler) UpdateContactStatus(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	var req domain.ContactStatusUpdate
	if !bindJSON(ctx, c, span, &req) {
		return
	}
	item, err := h.contacts.UpdateStatus(ctx, currentUser(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(ctx, c, span, err, "Update contact failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "contact": item})
}

func (h *Handler) DeleteContact(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	if err := h.contacts.Delete(ctx, currentUser(c), c.Param("id")); err != nil {
		writeError(ctx, c, span, err, "Delete contact failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Contact deleted successfully"})
}
