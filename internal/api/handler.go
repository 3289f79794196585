package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"session-scheduling-backend/internal/scheduling"
	"session-scheduling-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  *scheduling.Engine
	store   store.Store
	webpush *webpush.Options
	log     *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(engine *scheduling.Engine, s store.Store, webpushOptions *webpush.Options, log *zap.Logger) *Handler {
	return &Handler{
		engine:  engine,
		store:   s,
		webpush: webpushOptions,
		log:     log,
	}
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrInvalidInput), errors.Is(err, scheduling.ErrInvalidTimeRange):
		return http.StatusBadRequest
	case errors.Is(err, scheduling.ErrEngagementNotFound),
		errors.Is(err, scheduling.ErrBookingNotFound),
		errors.Is(err, scheduling.ErrSlotNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrBookingConflict), errors.Is(err, scheduling.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, scheduling.ErrEngagementNotBookable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
