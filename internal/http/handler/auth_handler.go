package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/gateway"
	"github.com/tayyabfareed009/newswatch/internal/http/middleware"
	"github.com/tayyabfareed009/newswatch/internal/service"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	Logger *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &AuthHandler{Auth: auth, Logger: logger}
}

type otpRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type verifyRequest struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResendOTP issues a fresh code for {email, purpose}.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req otpRequest
	if !bind(c, &req) {
		return
	}
	purpose, err := service.PurposeOf(req.Purpose)
	if err != nil {
		h.respondError(c, err)
		return
	}

	issue, err := h.Auth.RequestOTP(c.Request.Context(), req.Email, purpose)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateway.Envelope{Success: true, Message: "OTP sent to your email.", DevOTP: issue.DevCode})
}

// VerifyOTP checks {email, otp, purpose}.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyRequest
	if !bind(c, &req) {
		return
	}
	purpose, err := service.PurposeOf(req.Purpose)
	if err != nil {
		h.respondError(c, err)
		return
	}

	outcome, err := h.Auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP, purpose)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gateway.Envelope{Success: true, Message: "OTP verified.", RequiresRegistration: outcome.RequiresRegistration}
	if outcome.Auth != nil {
		resp.Token = outcome.Auth.Token
		resp.User = &outcome.Auth.User
	}
	c.JSON(http.StatusOK, resp)
}

// Register creates the account once the address has been verified.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.Auth.Register(c.Request.Context(), domain.PendingRegistration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gateway.Envelope{Success: true, Message: "Account created.", Token: result.Token, User: &result.User})
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateway.Envelope{Success: true, Token: result.Token, User: &result.User})
}

// ForgotPassword issues a reset code. The response does not reveal whether the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req otpRequest
	if !bind(c, &req) {
		return
	}

	issue, err := h.Auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateway.Envelope{Success: true, Message: "If the account exists, a reset code has been sent.", DevOTP: issue.DevCode})
}

// ResetPassword redeems {email, otp, newPassword}.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if !bind(c, &req) {
		return
	}

	if err := h.Auth.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateway.Envelope{Success: true, Message: "Password updated. Please sign in."})
}

// Me returns the profile of the bearer token's user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		h.respondError(c, service.ErrUnauthorized)
		return
	}

	user, err := h.Auth.Me(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateway.Envelope{Success: true, User: &user})
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gateway.Envelope{Error: service.CodeInvalidRequest, Message: "Invalid payload."})
		return false
	}
	return true
}

func (h *AuthHandler) respondError(c *gin.Context, err error) {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gateway.Envelope{Error: apiErr.Code, Message: apiErr.Message})
		return
	}
	_ = c.Error(err)
	h.Logger.Error("request failed",
		zap.String("request_id", middleware.RequestID(c)),
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gateway.Envelope{Error: service.CodeServerError, Message: "Internal server error."})
}
