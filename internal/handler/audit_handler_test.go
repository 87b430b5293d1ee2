package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopadmin/internal/model"
	"shopadmin/internal/service"
	"shopadmin/internal/spreadsheet"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditService struct {
	logs []service.AuditLogResponse
}

func (f *fakeAuditService) ListLogs(_ context.Context, _, _ int) ([]service.AuditLogResponse, int64, error) {
	return f.logs, int64(len(f.logs)), nil
}

func (f *fakeAuditService) AllLogs(_ context.Context) ([]service.AuditLogResponse, error) {
	return f.logs, nil
}

var _ service.AuditService = (*fakeAuditService)(nil)

func TestExportLogsRowCountMatchesFilter(t *testing.T) {
	svc := &fakeAuditService{logs: []service.AuditLogResponse{
		{Username: "alice", Action: model.ActionCreateProduct, EntityName: "Cola 330ml", CreatedAt: "2026-08-01 09:00:00"},
		{Username: "bob", Action: model.ActionDeleteCustomer, EntityName: "Old Account", CreatedAt: "2026-08-02 10:00:00"},
		{Username: "alice", Action: model.ActionUpdateProduct, EntityName: "Green Tea", CreatedAt: "2026-08-03 11:00:00"},
	}}
	guard := newTestGuard(map[string][]string{"admin": {"view-logs"}})
	r := newTestRouter(NewAuditHandler(svc, guard).RegisterRoutes)

	req := httptest.NewRequest(http.MethodGet, "/logs/export?search=alice", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.NewString(), "admin"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	table, err := spreadsheet.Read(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "User", "Action", "Entity", "Details"}, table.Headers)
	require.Len(t, table.Rows, 2)

	for _, row := range table.Rows {
		user, ok := row.Get("User")
		require.True(t, ok)
		assert.Equal(t, "alice", user)
	}
}

func TestExportLogsRequiresPermission(t *testing.T) {
	guard := newTestGuard(map[string][]string{"staff": {"view-products"}})
	r := newTestRouter(NewAuditHandler(&fakeAuditService{}, guard).RegisterRoutes)

	req := httptest.NewRequest(http.MethodGet, "/logs/export", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.NewString(), "staff"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
