package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	"shopadmin/internal/spreadsheet"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCustomerRepo struct {
	customers []model.Customer
	failOn    string // name that triggers a save failure
}

func (f *fakeCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if f.failOn != "" && c.Name == f.failOn {
		return errors.New("db down")
	}
	c.ID = uuid.New()
	f.customers = append(f.customers, *c)
	return nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, _ *model.Customer) error { return nil }
func (f *fakeCustomerRepo) Delete(_ context.Context, _ uuid.UUID) error       { return nil }
func (f *fakeCustomerRepo) FindByID(_ context.Context, _ uuid.UUID) (*model.Customer, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeCustomerRepo) FindByEmail(_ context.Context, _ string) (*model.Customer, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeCustomerRepo) ListAll(_ context.Context) ([]model.Customer, error) {
	return f.customers, nil
}

// auditRecorder captures audit entries for assertions.
type auditRecorder struct {
	entries []model.AuditLog
}

func (f *auditRecorder) Log(_ context.Context, e *model.AuditLog) error {
	f.entries = append(f.entries, *e)
	return nil
}
func (f *auditRecorder) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}
func (f *auditRecorder) ListAll(_ context.Context) ([]model.AuditLog, error) {
	return f.entries, nil
}
func (f *auditRecorder) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

var (
	_ repository.CustomerRepository = (*fakeCustomerRepo)(nil)
	_ repository.AuditRepository    = (*auditRecorder)(nil)
)

func sheetOf(t *testing.T, headers []string, rows [][]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteTo(&buf, headers, rows))
	return &buf
}

func TestImportFromSpreadsheetPerRowResults(t *testing.T) {
	repo := &fakeCustomerRepo{}
	audit := &auditRecorder{}
	svc := NewCustomerService(repo, audit)

	buf := sheetOf(t, []string{"Name", "Email", "Phone"}, [][]string{
		{"Nguyễn Văn A", "a@example.com", "0901111111"},
		{"", "missing@example.com", ""},
		{"Trần Thị B", "not-an-email", ""},
		{"Lê C", "", "0903333333"},
	})

	result, err := svc.ImportFromSpreadsheet(context.Background(), uuid.NewString(), buf)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Rows, 4)

	assert.Empty(t, result.Rows[0].Error)
	assert.Equal(t, "missing name", result.Rows[1].Error)
	assert.Equal(t, "invalid email", result.Rows[2].Error)
	assert.Empty(t, result.Rows[3].Error)

	require.Len(t, repo.customers, 2)
	assert.Equal(t, "Nguyễn Văn A", repo.customers[0].Name)
	assert.Equal(t, "Lê C", repo.customers[1].Name)
}

func TestImportFromSpreadsheetSaveFailureDoesNotAbort(t *testing.T) {
	repo := &fakeCustomerRepo{failOn: "Broken Row"}
	svc := NewCustomerService(repo, &auditRecorder{})

	buf := sheetOf(t, []string{"Name"}, [][]string{
		{"Broken Row"},
		{"Good Row"},
	})

	result, err := svc.ImportFromSpreadsheet(context.Background(), uuid.NewString(), buf)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "failed to save", result.Rows[0].Error)
	require.Len(t, repo.customers, 1)
	assert.Equal(t, "Good Row", repo.customers[0].Name)
}

func TestImportFromSpreadsheetRejectsEmptyFile(t *testing.T) {
	svc := NewCustomerService(&fakeCustomerRepo{}, &auditRecorder{})

	_, err := svc.ImportFromSpreadsheet(context.Background(), uuid.NewString(), bytes.NewReader(nil))
	require.Error(t, err)
}

func TestImportFromSpreadsheetWritesAuditEntry(t *testing.T) {
	audit := &auditRecorder{}
	svc := NewCustomerService(&fakeCustomerRepo{}, audit)

	buf := sheetOf(t, []string{"Name"}, [][]string{{"Solo"}})
	_, err := svc.ImportFromSpreadsheet(context.Background(), uuid.NewString(), buf)
	require.NoError(t, err)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.ActionImportCustomer, audit.entries[0].Action)
}
