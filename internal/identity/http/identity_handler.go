// Package http provides the HTTP handlers for the identity API: account
// registration, token request flows, and one-time token confirmation.
//
// Every mutation endpoint answers with the same neutral 202 body whether or
// not the submitted email is known, and every rejected confirmation collapses
// to one message. The handlers never echo back email addresses, validators,
// or any other request secret.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/httputil"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/identity/http/dto"
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
	customValidation "github.com/allisson/identity/internal/validation"
)

// acceptedMessage is the single neutral answer for every request flow.
const acceptedMessage = "If the address is eligible, a message is on its way"

// rejectedMessage is the single neutral answer for every rejected
// confirmation, regardless of the internal status.
const rejectedMessage = "The confirmation link is invalid or has expired"

// IdentityHandler handles HTTP requests for the identity API.
type IdentityHandler struct {
	accountUseCase    identityUseCase.AccountUseCase
	newsletterUseCase identityUseCase.NewsletterUseCase
	confirmUseCase    identityUseCase.ConfirmUseCase
	csrfValidator     CSRFValidator
	logger            *slog.Logger
}

// NewIdentityHandler creates a new identity handler with required dependencies.
func NewIdentityHandler(
	accountUseCase identityUseCase.AccountUseCase,
	newsletterUseCase identityUseCase.NewsletterUseCase,
	confirmUseCase identityUseCase.ConfirmUseCase,
	csrfValidator CSRFValidator,
	logger *slog.Logger,
) *IdentityHandler {
	return &IdentityHandler{
		accountUseCase:    accountUseCase,
		newsletterUseCase: newsletterUseCase,
		confirmUseCase:    confirmUseCase,
		csrfValidator:     csrfValidator,
		logger:            logger,
	}
}

// RegisterRoutes mounts the identity endpoints on the given group. The
// confirmation GET is exempt from CSRF: it is the entry point of mailed
// links, authenticated by the token itself.
func (h *IdentityHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/csrf", h.CSRFTokenHandler)
	v1.GET("/confirm", h.ConfirmLinkHandler)

	protected := v1.Group("")
	protected.Use(CSRFMiddleware(h.csrfValidator, h.logger))
	protected.POST("/register", h.RegisterHandler)
	protected.POST("/verification/request", h.RequestVerificationHandler)
	protected.POST("/password-reset/request", h.RequestPasswordResetHandler)
	protected.POST("/newsletter/subscribe", h.SubscribeHandler)
	protected.POST("/newsletter/unsubscribe", h.RequestUnsubscribeHandler)
	protected.POST("/confirm", h.ConfirmHandler)
}

// CSRFTokenHandler mints a CSRF token for the mutation endpoints.
// GET /v1/csrf
func (h *IdentityHandler) CSRFTokenHandler(c *gin.Context) {
	token, err := h.csrfValidator.Generate()
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RegisterHandler creates a new account and sends the verification mail.
// POST /v1/register
// Returns 202 Accepted with the neutral message in every non-error case.
func (h *IdentityHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.accountUseCase.Register(c.Request.Context(), identityUseCase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": acceptedMessage})
}

// RequestVerificationHandler re-sends the verification mail for an account.
// POST /v1/verification/request
func (h *IdentityHandler) RequestVerificationHandler(c *gin.Context) {
	var req dto.RequestVerificationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.accountUseCase.RequestVerification(c.Request.Context(), subjectID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": acceptedMessage})
}

// RequestPasswordResetHandler starts the password reset flow.
// POST /v1/password-reset/request
// Returns 202 Accepted whether or not the email is known.
func (h *IdentityHandler) RequestPasswordResetHandler(c *gin.Context) {
	h.handleEmailRequest(c, h.accountUseCase.RequestPasswordReset)
}

// SubscribeHandler starts the newsletter double-opt-in flow.
// POST /v1/newsletter/subscribe
func (h *IdentityHandler) SubscribeHandler(c *gin.Context) {
	h.handleEmailRequest(c, h.newsletterUseCase.Subscribe)
}

// RequestUnsubscribeHandler starts the newsletter unsubscribe flow.
// POST /v1/newsletter/unsubscribe
func (h *IdentityHandler) RequestUnsubscribeHandler(c *gin.Context) {
	h.handleEmailRequest(c, h.newsletterUseCase.RequestUnsubscribe)
}

// handleEmailRequest runs the shared bind/validate/accept cycle of the
// email-only endpoints.
func (h *IdentityHandler) handleEmailRequest(c *gin.Context, fn func(ctx context.Context, email string) error) {
	var req dto.EmailRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := fn(c.Request.Context(), req.Email); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": acceptedMessage})
}

// ConfirmHandler consumes a one-time token submitted as JSON, including the
// new password for the password_reset purpose.
// POST /v1/confirm
func (h *IdentityHandler) ConfirmHandler(c *gin.Context) {
	var req dto.ConfirmRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	h.confirm(c, req)
}

// ConfirmLinkHandler consumes a one-time token arriving as a mailed link.
// GET /v1/confirm?selector=...&validator=...&purpose=...
// The password_reset purpose cannot complete here: it needs the new password,
// which only the POST carries.
func (h *IdentityHandler) ConfirmLinkHandler(c *gin.Context) {
	h.confirm(c, dto.ConfirmRequest{
		Selector:  c.Query("selector"),
		Validator: c.Query("validator"),
		Purpose:   c.Query("purpose"),
	})
}

func (h *IdentityHandler) confirm(c *gin.Context, req dto.ConfirmRequest) {
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	purpose, err := cryptoDomain.ParsePurpose(req.Purpose)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.confirmUseCase.Confirm(c.Request.Context(), identityDomain.ConfirmTokenInput{
		Selector:    req.Selector,
		Validator:   req.Validator,
		Purpose:     purpose,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if output.Status != identityDomain.ConfirmationValid {
		// All rejection statuses collapse to one answer: the caller learns
		// nothing about why the token was refused.
		h.logger.Info("confirmation rejected", slog.String("status", string(output.Status)))
		c.JSON(http.StatusUnprocessableEntity, httputil.ErrorResponse{
			Error:   "invalid_token",
			Message: rejectedMessage,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "confirmed",
		"subject_id": output.SubjectID.String(),
	})
}
