package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"session-scheduling-backend/internal/scheduling"
)

// CreateSlot handles POST /organizations/:org_id/consultants/:consultant_id/slots.
func (h *Handler) CreateSlot(c *gin.Context) {
	var in scheduling.SlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	slot, err := h.engine.Slots.CreateSlot(c.Request.Context(), c.Param("org_id"), c.Param("consultant_id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// ListSlots returns the consultant's bookable slots.
func (h *Handler) ListSlots(c *gin.Context) {
	var q scheduling.SlotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	slots, err := h.engine.Slots.ListAvailableSlots(c.Request.Context(), c.Param("consultant_id"), c.Param("org_id"), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *Handler) UpdateSlot(c *gin.Context) {
	var patch scheduling.SlotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	slot, err := h.engine.Slots.UpdateSlot(c.Request.Context(), c.Param("slot_id"), c.Param("consultant_id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	if err := h.engine.Slots.DeleteSlot(c.Request.Context(), c.Param("slot_id"), c.Param("consultant_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type conflictQuery struct {
	Date             string `form:"date" binding:"required"`
	Start            string `form:"start" binding:"required"`
	End              string `form:"end" binding:"required"`
	ExcludeBookingID string `form:"exclude_booking_id"`
}

// CheckConflict reports whether the proposed range overlaps an active booking.
func (h *Handler) CheckConflict(c *gin.Context) {
	var q conflictQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	conflict, err := h.engine.Conflicts.HasConflict(c.Request.Context(), c.Param("consultant_id"), q.Date, q.Start, q.End, q.ExcludeBookingID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflict": conflict})
}
