package service

import (
	"context"
	"errors"
	"fmt"

	"shopadmin/internal/model"
	"shopadmin/internal/permission"
	"shopadmin/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRoleNotFound = errors.New("role not found")
	ErrSystemRole   = errors.New("system roles cannot be deleted")
	ErrSlugTaken    = errors.New("role slug already in use")
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, actorID, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	SeedDefaults(ctx context.Context) error
}

type roleService struct {
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
	registry  *permission.Registry
	txManager repository.TransactionManager
}

func NewRoleService(
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	registry *permission.Registry,
	txManager repository.TransactionManager,
) RoleService {
	return &roleService{
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		registry:  registry,
		txManager: txManager,
	}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		res = append(res, toRoleResponse(&roles[i]))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	res := toRoleResponse(role)
	return &res, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	if _, err := s.roleRepo.FindBySlug(ctx, req.Slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := &model.Role{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	res := toRoleResponse(role)
	return &res, nil
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}

	role.Name = req.Name
	role.Description = req.Description
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	res := toRoleResponse(role)
	return &res, nil
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return ErrRoleNotFound
	}
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoleNotFound
	}
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}

	if err := s.roleRepo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.registry.Invalidate(role.Slug)
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roleRepo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, PermissionResponse{
			ID:    p.ID.String(),
			Slug:  p.Slug,
			Name:  p.Name,
			Group: p.Group,
		})
	}
	return res, nil
}

// UpdateRolePermissions replaces the role's permission set wholesale and
// invalidates the cached resolution so active sessions pick up the change on
// their next guarded request.
func (s *roleService) UpdateRolePermissions(ctx context.Context, actorID, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, raw := range req.PermissionIDs {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid permission id %q", raw)
		}
		permIDs = append(permIDs, pid)
	}

	var role *model.Role
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		role, err = s.roleRepo.FindByIDWithPermissions(txCtx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		if err != nil {
			return err
		}
		if err := s.roleRepo.ReplacePermissions(txCtx, id, permIDs); err != nil {
			return fmt.Errorf("failed to replace permissions: %w", err)
		}
		role, err = s.roleRepo.FindByIDWithPermissions(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.registry.Invalidate(role.Slug)
	recordAudit(ctx, s.auditRepo, actorID, model.ActionUpdateRolePermissions, role.ID.String(), role.Name, map[string]interface{}{
		"permission_ids": req.PermissionIDs,
	})

	res := toRoleResponse(role)
	return &res, nil
}

func toRoleResponse(role *model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		perms = append(perms, PermissionResponse{
			ID:    p.ID.String(),
			Slug:  p.Slug,
			Name:  p.Name,
			Group: p.Group,
		})
	}
	return RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Slug:        role.Slug,
		Description: role.Description,
		IsSystem:    role.IsSystem,
		Permissions: perms,
	}
}

// defaultPermission declares one seeded capability.
type defaultPermission struct {
	Slug  string
	Name  string
	Group string
}

var defaultPermissions = []defaultPermission{
	{"view-products", "View products", "products"},
	{"create-products", "Create products", "products"},
	{"edit-products", "Edit products", "products"},
	{"delete-products", "Delete products", "products"},
	{"view-categories", "View categories", "products"},
	{"edit-categories", "Manage categories", "products"},
	{"view-units", "View units", "products"},
	{"edit-units", "Manage units", "products"},
	{"view-customers", "View customers", "customers"},
	{"create-customers", "Create customers", "customers"},
	{"edit-customers", "Edit customers", "customers"},
	{"delete-customers", "Delete customers", "customers"},
	{"import-customers", "Import customers from spreadsheet", "customers"},
	{"view-orders", "View orders", "orders"},
	{"manage-orders", "Update order status", "orders"},
	{"view-inventory", "View branch stock", "inventory"},
	{"adjust-stock", "Adjust branch stock", "inventory"},
	{"create-imports", "Create goods receipts", "inventory"},
	{"review-imports", "Approve or reject goods receipts", "inventory"},
	{"view-statistics", "View dashboard statistics", "statistics"},
	{"view-logs", "View audit logs", "system"},
	{"manage-users", "Manage user accounts", "system"},
	{"manage-roles", "Manage roles and permissions", "system"},
	{"upload-files", "Request upload signatures", "system"},
}

var defaultRoles = map[string][]string{
	"admin": nil, // nil means every permission
	"manager": {
		"view-products", "create-products", "edit-products",
		"view-categories", "edit-categories", "view-units", "edit-units",
		"view-customers", "create-customers", "edit-customers", "import-customers",
		"view-orders", "manage-orders",
		"view-inventory", "adjust-stock", "create-imports", "review-imports",
		"view-statistics", "view-logs", "upload-files",
	},
	"staff": {
		"view-products", "view-categories", "view-units",
		"view-customers", "view-orders",
		"view-inventory", "create-imports",
	},
}

// SeedDefaults creates the built-in permissions and roles on first boot.
// Existing rows are left untouched so operator edits survive restarts.
func (s *roleService) SeedDefaults(ctx context.Context) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		bySlug := make(map[string]uuid.UUID, len(defaultPermissions))
		for _, dp := range defaultPermissions {
			perm := &model.Permission{Slug: dp.Slug, Name: dp.Name, Group: dp.Group}
			if err := s.roleRepo.FindOrCreatePermission(txCtx, perm); err != nil {
				return fmt.Errorf("failed to seed permission %s: %w", dp.Slug, err)
			}
			bySlug[dp.Slug] = perm.ID
		}

		roleNames := map[string]string{"admin": "Administrator", "manager": "Manager", "staff": "Staff"}
		for slug, permSlugs := range defaultRoles {
			role, err := s.roleRepo.FindBySlug(txCtx, slug)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				role = &model.Role{Name: roleNames[slug], Slug: slug, IsSystem: true}
				if err := s.roleRepo.Create(txCtx, role); err != nil {
					return fmt.Errorf("failed to seed role %s: %w", slug, err)
				}
			} else if err != nil {
				return err
			} else {
				// Role already present; keep its permission assignments.
				continue
			}

			var ids []uuid.UUID
			if permSlugs == nil {
				for _, id := range bySlug {
					ids = append(ids, id)
				}
			} else {
				for _, ps := range permSlugs {
					ids = append(ids, bySlug[ps])
				}
			}
			if err := s.roleRepo.ReplacePermissions(txCtx, role.ID, ids); err != nil {
				return fmt.Errorf("failed to seed role permissions for %s: %w", slug, err)
			}
		}
		return nil
	})
}
