package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/repository"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	// GuestSession issues an ephemeral shadow-identity token. Callers use it
	// as the explicit prerequisite before reacting or commenting; the
	// ledgers themselves never create sessions.
	GuestSession(ctx context.Context) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

func (s *authService) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperror.ErrValidation)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hashed),
		DisplayName:  req.DisplayName,
		Role:         model.RoleMember,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GuestSession(ctx context.Context) (*dto.AuthResponse, error) {
	uid := uuid.NewString()

	token, err := s.signToken(uid, "", true)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:       token,
		UserID:      uid,
		DisplayName: identity.FallbackAnonymous,
		Anonymous:   true,
	}, nil
}

func (s *authService) buildAuthResponse(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.signToken(user.ID.String(), user.DisplayName, false)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:       token,
		UserID:      user.ID.String(),
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Anonymous:   false,
		AvatarURL:   user.AvatarURL,
	}, nil
}

func (s *authService) signToken(uid, displayName string, anonymous bool) (string, error) {
	now := time.Now()
	claims := identity.TokenClaims{
		DisplayName: displayName,
		Anonymous:   anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
