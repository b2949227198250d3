package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/internal/server/middleware"
	"github.com/mamadbah2/bakery/internal/service/invitations"
)

// InvitationService issues and redeems staff invitations.
type InvitationService interface {
	Create(ctx context.Context, inviter invitations.Inviter, email, role string) (invitations.Created, error)
	Accept(ctx context.Context, token, userID string) (access.Role, error)
}

// InvitationHandler serves the invitation endpoints.
type InvitationHandler struct {
	svc    InvitationService
	logger *zap.Logger
}

func NewInvitationHandler(svc InvitationService, logger *zap.Logger) *InvitationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvitationHandler{svc: svc, logger: logger}
}

type createInvitationRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

type acceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// Create issues an invitation on behalf of the caller.
func (h *InvitationHandler) Create(c *gin.Context) {
	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	inviter := invitations.Inviter{UserID: middleware.UserID(c), Role: middleware.Role(c)}
	created, err := h.svc.Create(c.Request.Context(), inviter, req.Email, req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Accept redeems an invitation token for the caller.
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req acceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	role, err := h.svc.Accept(c.Request.Context(), req.Token, middleware.UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (h *InvitationHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, invitations.ErrInvalidArguments):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, invitations.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, invitations.ErrInvalidToken):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, invitations.ErrInvitationExpired), errors.Is(err, invitations.ErrInvitationUsed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		h.logger.Error("invitation request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to process invitation"})
	}
}
