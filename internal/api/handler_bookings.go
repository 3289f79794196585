package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"session-scheduling-backend/internal/scheduling"
)

type createBookingRequest struct {
	EngagementID  string `json:"engagement_id" binding:"required"`
	ConsultantID  string `json:"consultant_id" binding:"required"`
	BeneficiaryID string `json:"beneficiary_id" binding:"required"`
	scheduling.BookingInput
}

// CreateBooking handles POST /organizations/:org_id/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.engine.Bookings.CreateBooking(c.Request.Context(),
		c.Param("org_id"), req.EngagementID, req.ConsultantID, req.BeneficiaryID, req.BookingInput)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *Handler) GetBooking(c *gin.Context) {
	booking, err := h.engine.Bookings.GetBooking(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type confirmRequest struct {
	ConsultantID string `json:"consultant_id" binding:"required"`
}

func (h *Handler) ConfirmBooking(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.engine.Bookings.ConfirmBooking(c.Request.Context(), c.Param("booking_id"), req.ConsultantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type completeRequest struct {
	Attended *bool `json:"attended" binding:"required"`
	scheduling.Feedback
}

// CompleteSession records attendance and optional feedback.
func (h *Handler) CompleteSession(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var feedback *scheduling.Feedback
	if req.Rating != nil || req.Comment != nil {
		feedback = &req.Feedback
	}
	booking, err := h.engine.Bookings.CompleteSession(c.Request.Context(), c.Param("booking_id"), *req.Attended, feedback)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking accepts an empty body; the reason is optional.
func (h *Handler) CancelBooking(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	booking, err := h.engine.Bookings.CancelBooking(c.Request.Context(), c.Param("booking_id"), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) ListConsultantBookings(c *gin.Context) {
	var q scheduling.BookingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	bookings, err := h.engine.Bookings.ListForConsultant(c.Request.Context(), c.Param("consultant_id"), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) ListBeneficiaryBookings(c *gin.Context) {
	var q scheduling.BookingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	bookings, err := h.engine.Bookings.ListForBeneficiary(c.Request.Context(), c.Param("beneficiary_id"), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// ListAnalytics returns the consultant's daily rollups, oldest first.
func (h *Handler) ListAnalytics(c *gin.Context) {
	var q scheduling.AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	rows, err := h.engine.Analytics.ListAnalytics(c.Request.Context(), c.Param("consultant_id"), c.Param("org_id"), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
