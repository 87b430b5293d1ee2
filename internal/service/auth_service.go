package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopadmin/internal/model"
	"shopadmin/internal/permission"
	"shopadmin/internal/repository"
	"shopadmin/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
)

// --- DTOs ---

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type ProfileResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	BranchID    *string  `json:"branch_id,omitempty"`
	Permissions []string `json:"permissions"`
}

type LoginResponse struct {
	TokenPair
	User ProfileResponse `json:"user"`
}

// --- Interface ---

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*ProfileResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	registry   *permission.Registry
	sessions   *session.Store
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	registry *permission.Registry,
	sessions *session.Store,
	secret string,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		registry:   registry,
		sessions:   sessions,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Allow email login from the same field.
		user, err = s.userRepo.GetByEmail(ctx, req.Username)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// Refresh rotates the refresh token: the presented token is consumed and a
// new pair is issued. A replayed token therefore fails with ErrSessionExpired.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	sess, err := s.sessions.Get(ctx, refreshToken)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, sess.User.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = s.sessions.Clear(ctx, refreshToken)
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.sessions.Clear(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	return s.issueSession(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Clear(ctx, refreshToken)
}

func (s *authService) Me(ctx context.Context, userID string) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileFor(ctx, user)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *authService) issueSession(ctx context.Context, user *model.User) (*LoginResponse, error) {
	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken := uuid.NewString()
	var branchID *string
	if user.BranchID != nil {
		id := user.BranchID.String()
		branchID = &id
	}
	err = s.sessions.Save(ctx, session.Session{
		Token: refreshToken,
		User: session.User{
			ID:       user.ID.String(),
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
			BranchID: branchID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	profile, err := s.profileFor(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		TokenPair: TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		User:      profile,
	}, nil
}

func (s *authService) profileFor(ctx context.Context, user *model.User) (ProfileResponse, error) {
	perms, err := s.registry.Resolve(ctx, user.Role)
	if err != nil {
		return ProfileResponse{}, fmt.Errorf("failed to resolve permissions: %w", err)
	}

	var branchID *string
	if user.BranchID != nil {
		id := user.BranchID.String()
		branchID = &id
	}
	return ProfileResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		BranchID:    branchID,
		Permissions: perms.Slugs(),
	}, nil
}

func (s *authService) signAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.accessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
