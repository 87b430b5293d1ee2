package service

import (
	"context"
	"encoding/json"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"

	"github.com/google/uuid"
)

// recordAudit writes one audit entry. Failures are swallowed: auditing never
// blocks the operation it describes.
func recordAudit(ctx context.Context, repo repository.AuditRepository, actorID, action, entityID, entityName string, details map[string]interface{}) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if uid, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &uid
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}
	_ = repo.Log(ctx, entry)
}

// --- DTOs ---

type AuditLogResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// --- Interface ---

type AuditService interface {
	ListLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
	AllLogs(ctx context.Context) ([]AuditLogResponse, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.auditRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toAuditResponses(logs), total, nil
}

// AllLogs returns the whole retained trail for spreadsheet export.
func (s *auditService) AllLogs(ctx context.Context) ([]AuditLogResponse, error) {
	logs, err := s.auditRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toAuditResponses(logs), nil
}

func toAuditResponses(logs []model.AuditLog) []AuditLogResponse {
	res := make([]AuditLogResponse, 0, len(logs))
	for _, entry := range logs {
		item := AuditLogResponse{
			ID:         entry.ID.String(),
			Action:     entry.Action,
			EntityID:   entry.EntityID,
			EntityName: entry.EntityName,
			Details:    entry.Details,
			CreatedAt:  entry.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if entry.User != nil {
			item.Username = entry.User.Username
		} else {
			item.Username = "system"
		}
		res = append(res, item)
	}
	return res
}
