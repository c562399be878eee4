package booking

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labbook/internal/pkg/response"
	"labbook/internal/pkg/validator"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the booking endpoints; rg must already require authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListBookings)
	rg.POST("/bookings", h.CreateBooking)
	rg.DELETE("/bookings/:id", h.DeleteBooking)
}

// ListBookings returns the bookings between two days inclusive.
// GET /api/v1/bookings?from=2026-11-01&to=2026-11-30
func (h *Handler) ListBookings(c *gin.Context) {
	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}
	if errs := validator.Validate(q); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query", errs)
		return
	}

	list, err := h.service.List(c.Request.Context(), q.From, q.To)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ListBookingsResponse{Bookings: list})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	b, err := h.service.Create(c.Request.Context(), c.GetString("user_id"), CreateInput{
		Day:         req.Day,
		StartMinute: *req.StartMinute,
		EndMinute:   *req.EndMinute,
		Note:        req.Note,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, BookingResponse{Booking: *b})
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	b, err := h.service.Delete(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, BookingResponse{Booking: *b})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking data")
	case errors.Is(err, ErrInvalidRange):
		response.Error(c, http.StatusBadRequest, "INVALID_RANGE", "Start must be before end, within 00:00-24:00")
	case errors.Is(err, ErrPastDate):
		response.Error(c, http.StatusBadRequest, "PAST_DATE", "Past days cannot be booked")
	case errors.Is(err, ErrOverlap):
		response.Error(c, http.StatusConflict, "OVERLAP_CONFLICT", "The time range overlaps another booking")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only the owner can cancel a booking")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	default:
		h.log.Error("booking request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Booking store failure")
	}
}
