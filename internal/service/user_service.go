package service

import (
	"context"
	"errors"
	"fmt"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	"shopadmin/internal/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already in use")
	ErrUnknownRole   = errors.New("unknown role")
)

// --- DTOs ---

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
	BranchID string `json:"branch_id"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"omitempty,min=8"`
	Role     string `json:"role" binding:"required"`
	BranchID string `json:"branch_id"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Role      string  `json:"role"`
	BranchID  *string `json:"branch_id,omitempty"`
	Branch    string  `json:"branch,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	ListUsers(ctx context.Context) ([]UserResponse, error)
	GetUser(ctx context.Context, id string) (*UserResponse, error)
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actorID, id string) error
}

type userService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
	sessions  *session.Store
}

func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	sessions *session.Store,
) UserService {
	return &userService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		sessions:  sessions,
	}
}

func (s *userService) ListUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.validateRole(ctx, req.Role); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashed),
		Role:     req.Role,
	}
	if req.BranchID != "" {
		branchID, err := uuid.Parse(req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("invalid branch id: %w", err)
		}
		user.BranchID = &branchID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionCreateUser, user.ID.String(), user.Username, map[string]interface{}{
		"role": user.Role,
	})

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.validateRole(ctx, req.Role); err != nil {
		return nil, err
	}

	roleChanged := user.Role != req.Role
	user.Email = req.Email
	user.Phone = req.Phone
	user.Role = req.Role
	user.BranchID = nil
	if req.BranchID != "" {
		branchID, err := uuid.Parse(req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("invalid branch id: %w", err)
		}
		user.BranchID = &branchID
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// Role or password changes invalidate every active session for the
	// account; the next refresh attempt fails and forces a fresh login.
	if roleChanged || req.Password != "" {
		_ = s.sessions.ClearAllForUser(ctx, user.ID.String())
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionUpdateUser, user.ID.String(), user.Username, map[string]interface{}{
		"role":         user.Role,
		"role_changed": roleChanged,
	})

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id string) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	_ = s.sessions.ClearAllForUser(ctx, user.ID.String())

	recordAudit(ctx, s.auditRepo, actorID, model.ActionDeleteUser, user.ID.String(), user.Username, nil)
	return nil
}

func (s *userService) validateRole(ctx context.Context, slug string) error {
	_, err := s.roleRepo.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnknownRole
	}
	return err
}


func toUserResponse(user *model.User) UserResponse {
	res := UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if user.BranchID != nil {
		id := user.BranchID.String()
		res.BranchID = &id
	}
	if user.Branch != nil {
		res.Branch = user.Branch.Name
	}
	return res
}
