package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type accessClaims struct {
	OrganizationID string `json:"org"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	users    repository.UserRepo
	tokens   repository.RefreshTokenRepo
	secret   []byte
	observer *UseCaseObserver

	now func() time.Time
}

func NewAuthService(users repository.UserRepo, tokens repository.RefreshTokenRepo, secret string, observer *UseCaseObserver) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		secret:   []byte(secret),
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (pair *TokenPair, err error) {
	defer s.observer.Observe("auth.login")(err)

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
	}
	return s.issuePair(ctx, user)
}

// Refresh rotates the refresh token: the presented token is consumed and a
// new pair is issued. A reused or expired token reads as unauthenticated.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer s.observer.Observe("auth.refresh")(err)

	row, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown refresh token: %w", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}
	if row.Expired(s.now()) {
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthenticated)
	}

	user, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.Delete(ctx, refreshToken)
	if errors.Is(err, domain.ErrNotFound) {
		return nil // already revoked
	}
	return err
}

func (s *authService) LogoutAll(ctx context.Context, actor Actor) error {
	return s.tokens.DeleteByUser(ctx, actor.UserID)
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every outstanding refresh token for the user.
func (s *authService) ChangePassword(ctx context.Context, actor Actor, current, updated string) (err error) {
	defer s.observer.Observe("auth.change_password")(err)

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return fmt.Errorf("current password does not match: %w", domain.ErrUnauthenticated)
	}
	if len(updated) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(updated), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	return s.tokens.DeleteByUser(ctx, user.ID)
}

func (s *authService) VerifyAccessToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("malformed token claims: %w", domain.ErrUnauthenticated)
	}
	return &Claims{
		UserID:         claims.Subject,
		OrganizationID: claims.OrganizationID,
		Role:           domain.Role(claims.Role),
	}, nil
}

// CreateUser provisions an account inside the actor's organisation. PMO only.
func (s *authService) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (user *domain.User, err error) {
	defer s.observer.Observe("auth.create_user")(err)

	if actor.Role != domain.RolePMO {
		return nil, fmt.Errorf("only PMO can create users: %w", domain.ErrForbidden)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	user = &domain.User{
		ID:             uuid.NewString(),
		OrganizationID: actor.OrganizationID,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Name:           in.Name,
		PasswordHash:   string(hash),
		Role:           in.Role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = user.Validate(); err != nil {
		return nil, err
	}
	if err = s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, actor Actor, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.OrganizationID != actor.OrganizationID {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, actor Actor) ([]*domain.User, error) {
	return s.users.ListByOrganization(ctx, actor.OrganizationID)
}

func (s *authService) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	now := s.now()
	expiresAt := now.Add(accessTokenTTL)

	claims := accessClaims{
		OrganizationID: user.OrganizationID,
		Role:           string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refresh := &domain.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(refreshTokenTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}
