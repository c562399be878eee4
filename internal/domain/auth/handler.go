package auth

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

// RequestCode sends a one-time login code to an invited email.
// POST /api/v1/auth/otp/request
func (h *Handler) RequestCode(c *gin.Context) {
	var req RequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	if err := h.service.RequestCode(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email address")
		case errors.Is(err, ErrNotInvited):
			response.Error(c, http.StatusForbidden, "NOT_INVITED", "This email is not invited")
		case errors.Is(err, ErrRateLimitExceeded):
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Please wait before requesting a new code")
		default:
			h.log.Error("login code request failed", zap.Error(err))
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "CODE_REQUEST_FAILED", "Failed to send login code")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "sent"})
}

// VerifyCode exchanges the emailed code for an access token.
// POST /api/v1/auth/otp/verify
func (h *Handler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Email == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email is required")
		return
	}

	result, err := h.service.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email address")
		case errors.Is(err, ErrInvalidCodeFormat):
			response.Error(c, http.StatusBadRequest, "INVALID_CODE_FORMAT", "Login code must be exactly 6 digits")
		case errors.Is(err, ErrTooManyAttempts):
			response.Error(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many invalid attempts, request a new code")
		case errors.Is(err, ErrInvalidCode):
			response.Error(c, http.StatusUnauthorized, "INVALID_CODE", "Invalid or expired login code")
		default:
			h.log.Error("login code verification failed", zap.Error(err))
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "CODE_VERIFY_FAILED", "Failed to verify login code")
		}
		return
	}

	response.Success(c, http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   result.ExpiresIn,
		User: Identity{
			UserID:      result.User.ID,
			Email:       result.User.Email,
			DisplayName: result.DisplayName,
		},
	})
}

// GetMe returns the signed-in identity.
// GET /api/v1/users/me
func (h *Handler) GetMe(c *gin.Context) {
	id, err := h.service.Identity(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		h.log.Error("load identity failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user")
		return
	}

	response.Success(c, http.StatusOK, MeResponse{User: *id})
}
