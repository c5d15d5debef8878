package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRoleNotFound       = fmt.Errorf("%w: role must be admin or staff", models.ErrValidation)
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrRegistrationClosed = errors.New("only an admin can register new users")
)

const tokenTypeBearer = "Bearer"

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(ctx context.Context, req models.RegistrationPayload, actorRole string) (*models.User, error)
	LoginUser(ctx context.Context, req models.Credentials) (*models.LoginResponse, error)
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	tx       repositories.Transactor
	tokens   *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, tx repositories.Transactor, tokens *utils.TokenManager) AuthService {
	return &authService{authRepo: authRepo, tx: tx, tokens: tokens}
}

// RegisterUser creates a panel user. The very first user becomes admin and needs no actor;
// after that only an admin (actorRole) may register users, with the requested role defaulting to staff.
func (s *authService) RegisterUser(ctx context.Context, req models.RegistrationPayload, actorRole string) (*models.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	role := models.RoleStaff
	if req.Role != nil && strings.TrimSpace(*req.Role) != "" {
		role = strings.ToLower(strings.TrimSpace(*req.Role))
		if !models.IsValidRole(role) {
			return nil, fmt.Errorf("%w: '%s'", ErrRoleNotFound, *req.Role)
		}
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    utils.TrimmedNullString(req.Email),
		FullName: utils.TrimmedNullString(req.FullName),
		Role:     role,
	}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.authRepo.CountUsers(ctx, exec)
		if err != nil {
			return err
		}
		switch {
		case count == 0:
			user.Role = models.RoleAdmin
		case actorRole != models.RoleAdmin:
			return ErrRegistrationClosed
		}
		_, err = s.authRepo.CreateUser(ctx, exec, user, string(hashedPasswordBytes))
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRegistrationClosed):
			return nil, ErrRegistrationClosed
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	user.PasswordHash = ""
	return user, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req models.Credentials) (*models.LoginResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &models.LoginResponse{
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
