package invitations

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

const secretBytes = 24

var (
	ErrInvalidArguments  = errors.New("invalid invitation request")
	ErrForbidden         = errors.New("role may not invite this role")
	ErrInvalidToken      = errors.New("invalid invitation token")
	ErrInvitationExpired = errors.New("invitation expired")
	ErrInvitationUsed    = errors.New("invitation already used")
)

// Repository persists invitations.
type Repository interface {
	Create(ctx context.Context, inv models.Invitation) error
	Get(ctx context.Context, id string) (models.Invitation, error)
	MarkUsed(ctx context.Context, id, userID string, at time.Time) error
}

// Inviter identifies the staff member creating an invitation.
type Inviter struct {
	UserID string
	Role   access.Role
}

// Created is the result of Create. Token is only available here.
type Created struct {
	Invitation models.Invitation `json:"invitation"`
	Token      string            `json:"token"`
}

// Service issues and redeems invitations.
type Service struct {
	repo   Repository
	access access.Checker
	ttl    time.Duration
	cost   int
	logger *zap.Logger
	now    func() time.Time
}

// NewService builds the invitation service.
func NewService(repo Repository, checker access.Checker, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		access: checker,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		logger: logger,
		now:    time.Now,
	}
}

// Create issues an invitation for email with role. The returned token has
// the form "<id>.<secret>"; only a bcrypt hash of the secret is stored.
func (s *Service) Create(ctx context.Context, inviter Inviter, email, role string) (Created, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return Created{}, fmt.Errorf("%w: invalid email", ErrInvalidArguments)
	}
	invitee, ok := access.ParseRole(role)
	if !ok {
		return Created{}, fmt.Errorf("%w: unknown role %q", ErrInvalidArguments, role)
	}
	if !s.access.CanInvite(inviter.Role, invitee) {
		return Created{}, ErrForbidden
	}

	secret, err := newSecret()
	if err != nil {
		return Created{}, fmt.Errorf("generate secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return Created{}, fmt.Errorf("hash secret: %w", err)
	}

	now := s.now().UTC()
	inv := models.Invitation{
		ID:         uuid.NewString(),
		Email:      strings.ToLower(addr.Address),
		Role:       string(invitee),
		SecretHash: string(hash),
		InvitedBy:  inviter.UserID,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return Created{}, fmt.Errorf("store invitation: %w", err)
	}

	s.logger.Info("invitation created",
		zap.String("invitation_id", inv.ID),
		zap.String("role", inv.Role),
		zap.String("invited_by", inv.InvitedBy),
		zap.Time("expires_at", inv.ExpiresAt))

	return Created{Invitation: inv, Token: inv.ID + "." + secret}, nil
}

// Accept redeems token for userID and returns the granted role.
func (s *Service) Accept(ctx context.Context, token, userID string) (access.Role, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: user is required", ErrInvalidArguments)
	}
	id, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || id == "" || secret == "" {
		return "", ErrInvalidToken
	}

	inv, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("load invitation: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(inv.SecretHash), []byte(secret)); err != nil {
		return "", ErrInvalidToken
	}
	if inv.UsedAt != nil {
		return "", ErrInvitationUsed
	}
	now := s.now().UTC()
	if !now.Before(inv.ExpiresAt) {
		return "", ErrInvitationExpired
	}

	if err := s.repo.MarkUsed(ctx, inv.ID, userID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", ErrInvitationUsed
		}
		return "", fmt.Errorf("mark invitation used: %w", err)
	}

	role, ok := access.ParseRole(inv.Role)
	if !ok {
		return "", fmt.Errorf("%w: stored role %q", ErrInvalidToken, inv.Role)
	}

	s.logger.Info("invitation accepted", zap.String("invitation_id", inv.ID), zap.String("user_id", userID))
	return role, nil
}

func newSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
