package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "ai-reports"

// ProfileUpdate holds the optional fields of PUT /auth/user/:id.
type ProfileUpdate struct {
	FullName *string
	Email    *string
	Password *string
}

type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// Logout revokes token until it would have expired anyway.
	Logout(ctx context.Context, token string) error
	// ValidateToken returns the id of a live user holding a valid, unrevoked token.
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, actorID, userID uuid.UUID, in ProfileUpdate) (*domain.User, error)
	DeleteAccount(ctx context.Context, actorID, userID uuid.UUID) error
	// SweepRevoked drops revocations whose tokens have expired.
	SweepRevoked(ctx context.Context) (int64, error)
}

type authService struct {
	userRepo      repository.UserRepository
	revokedRepo   repository.RevokedCredentialRepository
	jwtSecret     string
	jwtExpiration time.Duration
	bcryptCost    int
	now           func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, revokedRepo repository.RevokedCredentialRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		revokedRepo:   revokedRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		bcryptCost:    bcrypt.DefaultCost,
		now:           time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" || password == "" {
		return nil, validationError("All fields are required")
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, newError(ErrConflict, "User already exists", nil)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{FullName: fullName, Email: email, PasswordHash: string(hash)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "User already exists", err)
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, validationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, notFound("User not found", err)
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, newError(ErrValidation, "Invalid credentials", nil)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		// expired or invalid tokens are already unusable
		return nil
	}
	cred := &domain.RevokedCredential{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		CreatedAt: s.now().UTC(),
	}
	if id, err := uuid.Parse(claims.UserID); err == nil {
		cred.UserID = &id
	}
	return s.revokedRepo.Revoke(ctx, cred)
}

func (s *authService) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := s.parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, newError(ErrUnauthorized, "Token has expired", err)
		}
		return uuid.Nil, newError(ErrUnauthorized, "Invalid token", err)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, newError(ErrUnauthorized, "Invalid token or missing claims", err)
	}

	revoked, err := s.revokedRepo.IsRevoked(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	if revoked {
		return uuid.Nil, newError(ErrUnauthorized, "Token has been revoked", nil)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, newError(ErrUnauthorized, "User no longer exists", err)
		}
		return uuid.Nil, err
	}
	return userID, nil
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("User not found", err)
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, actorID, userID uuid.UUID, in ProfileUpdate) (*domain.User, error) {
	if actorID != userID {
		return nil, newError(ErrForbidden, "You can only update your own account", nil)
	}

	var patch domain.UserPatch
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, validationError("Full name cannot be empty")
		}
		patch.FullName = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, validationError("Email cannot be empty")
		}
		patch.Email = &email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, validationError("Password cannot be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		patch.PasswordHash = &h
	}

	user, err := s.userRepo.Update(ctx, userID, patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("User not found", err)
	case errors.Is(err, repository.ErrDuplicate):
		return nil, newError(ErrConflict, "Email is already in use", err)
	case err != nil:
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) DeleteAccount(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID != userID {
		return newError(ErrForbidden, "You can only delete your own account", nil)
	}
	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("User not found", err)
		}
		return err
	}
	return nil
}

func (s *authService) SweepRevoked(ctx context.Context) (int64, error) {
	return s.revokedRepo.DeleteExpired(ctx, s.now().UTC())
}

// --- JWT Helper ---

type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := s.now()
	claims := &jwtClaims{
		UserID: user.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			// distinguishes tokens issued within the same second
			ID:     uuid.NewString(),
			Issuer: tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

func (s *authService) parse(tokenString string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, errors.New("invalid token or missing claims")
	}
	return claims, nil
}
