package api

import (
	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	svc    Service
	limits Limits
}

func NewContactHandler(svc Service, limits Limits) *ContactHandler {
	return &ContactHandler{svc: svc, limits: limits}
}

// GetContacts lists the address book of a session.
func (h *ContactHandler) GetContacts(c *gin.Context) {
	q, apiErr := parseListQuery(c, h.limits)
	if apiErr != nil {
		abortWithError(c, apiErr)
		return
	}

	page, src := h.svc.ListContacts(c.Request.Context(), q)
	respondWithSource(c, page, src)
}
