package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventhub/internal/shared/utils/response"
	"eventhub/internal/users"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Register handles POST /auth/register
func (ctrl *Controller) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	result, err := ctrl.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.RespondJSON(c, "error", http.StatusConflict, "Email is already registered", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to register", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Registered successfully", result, nil)
}

// Login handles POST /auth/login
func (ctrl *Controller) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	result, err := ctrl.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Invalid email or password", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to login", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Logged in successfully", result, nil)
}

// RefreshToken handles POST /auth/refresh
func (ctrl *Controller) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	tokens, err := ctrl.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Invalid or expired refresh token", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to refresh token", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Token refreshed successfully", tokens, nil)
}

// Logout handles POST /auth/logout. Tokens are stateless; the client
// drops its pair and the short access TTL does the rest.
func (ctrl *Controller) Logout(c *gin.Context) {
	response.RespondJSON(c, "success", http.StatusOK, "Logged out successfully", nil, nil)
}

// ChangePassword handles POST /auth/change-password
func (ctrl *Controller) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	if err := ctrl.service.ChangePassword(c.Request.Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Current password is incorrect", nil, nil)
		case errors.Is(err, users.ErrUserNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "User not found", nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to change password", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Password changed successfully", nil, nil)
}

// RequestOTP handles POST /auth/otp/request
func (ctrl *Controller) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	if err := ctrl.service.RequestOTP(c.Request.Context(), req.Email); err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to send verification code", nil, err.Error())
		return
	}

	// Same response whether or not the email is registered
	response.RespondJSON(c, "success", http.StatusOK, "If the email is registered, a verification code has been sent", nil, nil)
}

// VerifyOTP handles POST /auth/otp/verify
func (ctrl *Controller) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	if err := ctrl.service.VerifyOTP(c.Request.Context(), req); err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			response.RespondJSON(c, "error", http.StatusUnprocessableEntity, "Invalid or expired verification code", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to verify code", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Email verified successfully", nil, nil)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
