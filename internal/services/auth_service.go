// internal/services/auth_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/config"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/repository"
	"github.com/javajoker/campus-market/internal/session"
	"github.com/javajoker/campus-market/internal/utils"
)

type AuthService struct {
	users    repository.UserRepository
	sessions *session.Manager
	cfg      *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
	SessionID   uuid.UUID    `json:"session_id"`
}

func NewAuthService(users repository.UserRepository, sessions *session.Manager, cfg *config.Config) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
	}
}

// SessionTTL is the lifetime of a session and of the tokens it issues.
func SessionTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.JWT.AccessTokenTTL) * time.Hour
}

// Register creates the account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperr.Validation("invalid registration", utils.GetValidationErrors(err))
	}

	user := &models.User{
		Email:       req.Email,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Wrap(apperr.KindConflict, "an account with this email already exists", err)
		}
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("Account registered")
	return s.startSession(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperr.Validation("invalid sign-in request", utils.GetValidationErrors(err))
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Authentication("invalid email or password")
		}
		return nil, err
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperr.Authentication("invalid email or password")
	}

	return s.startSession(user)
}

// Logout ends the session. Ending an unknown session is not an error.
func (s *AuthService) Logout(sessionID uuid.UUID) {
	if s.sessions.End(sessionID) {
		logrus.WithField("session_id", sessionID).Info("Session ended")
	}
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) startSession(user *models.User) (*AuthResponse, error) {
	sess := s.sessions.Start(user.ID)

	token, err := utils.GenerateJWT(user.ID, sess.ID, user.Email, user.DisplayName, sess.ExpiresAt)
	if err != nil {
		s.sessions.End(sess.ID)
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(sess.ExpiresAt).Seconds()),
		SessionID:   sess.ID,
	}, nil
}
