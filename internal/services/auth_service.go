package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by LoginUser for any unknown user or wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService registers catalog editors and issues the tokens that guard product writes.
type AuthService struct {
	userRepo      repositories.UserRepository
	logger        zerolog.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, logger zerolog.Logger, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		logger:        logger.With().Str("service", "auth").Logger(),
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour,
	}
}

// RegisterUser hashes the password and stores the user. Duplicate usernames or
// emails come back as Conflict errors.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	if existing, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil && existing != nil {
		return &Error{Kind: ErrorKindConflict, Message: fmt.Sprintf("username '%s' already taken", user.Username)}
	}
	if existing, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return &Error{Kind: ErrorKindConflict, Message: fmt.Sprintf("email '%s' already registered", user.Email)}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent registration can still trip the unique indexes
		return classifyStoreError(s.logger, "register", err)
	}
	return nil
}

// LoginUser authenticates a user and returns a signed JWT.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.tokenDuration).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("token validation failed")
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
