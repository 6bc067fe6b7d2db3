package service

import (
	"context"
	"strings"
	"time"

	"certdocs/internal/apperr"
	"certdocs/internal/auth"
	"certdocs/internal/model"
	"certdocs/internal/repository"
)

const invalidCredentials = "invalid credentials"

// LoginResult is a freshly issued access token.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService signs users in and resolves tokens to actors.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Authenticate(token string) (model.Actor, error)
	Me(ctx context.Context, actor model.Actor) (*model.User, error)
}

type authService struct {
	uow    repository.UnitOfWork
	tokens *auth.TokenService
	audit  AuditRecorder
	now    func() time.Time
}

func NewAuthService(uow repository.UnitOfWork, tokens *auth.TokenService, audit AuditRecorder) AuthService {
	return &authService{uow: uow, tokens: tokens, audit: audit, now: time.Now}
}

// Login never tells unknown, inactive and wrong-password accounts apart.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	u, err := s.uow.Users().FindByEmail(ctx, email)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	actor := u.Actor()
	token, err := s.tokens.Issue(actor)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		_, err := s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditLogin,
			Actor:      &actor,
			EntityType: model.EntityUser,
			EntityID:   u.ID,
			BranchID:   actor.BranchID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: s.now().Add(s.tokens.TTL()).UTC(), User: u}, nil
}

func (s *authService) Authenticate(token string) (model.Actor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return model.Actor{}, err
	}
	return claims.Actor(), nil
}

func (s *authService) Me(ctx context.Context, actor model.Actor) (*model.User, error) {
	u, err := s.uow.Users().FindByID(ctx, actor.ID)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, apperr.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	return u, nil
}
