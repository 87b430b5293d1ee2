package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopadmin/internal/model"
	"shopadmin/internal/service"
	"shopadmin/internal/spreadsheet"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventoryService struct {
	stock []model.BranchStock
}

func (f *fakeInventoryService) ListBranches(_ context.Context) ([]model.Branch, error) {
	return nil, nil
}

func (f *fakeInventoryService) ListStock(_ context.Context, _ string) ([]model.BranchStock, error) {
	return f.stock, nil
}

func (f *fakeInventoryService) AdjustStock(_ context.Context, _ string, _ service.AdjustStockRequest) (*model.BranchStock, error) {
	return &model.BranchStock{}, nil
}

func (f *fakeInventoryService) ListImports(_ context.Context, _ service.ListImportsQuery) ([]model.InventoryImport, int64, error) {
	return nil, 0, nil
}

func (f *fakeInventoryService) GetImport(_ context.Context, _ string) (*model.InventoryImport, error) {
	return nil, service.ErrImportNotFound
}

func (f *fakeInventoryService) CreateImport(_ context.Context, _ string, _ service.CreateImportRequest) (*model.InventoryImport, error) {
	return nil, nil
}

func (f *fakeInventoryService) ApproveImport(_ context.Context, _, _ string) (*model.InventoryImport, error) {
	return nil, nil
}

func (f *fakeInventoryService) RejectImport(_ context.Context, _, _ string, _ service.RejectImportRequest) (*model.InventoryImport, error) {
	return nil, nil
}

var _ service.InventoryService = (*fakeInventoryService)(nil)

func stockFixture() []model.BranchStock {
	return []model.BranchStock{
		{
			Branch:   model.Branch{Name: "District 1", Code: "D1"},
			Product:  model.Product{Name: "Cola 330ml", SKU: "SKU-COLA"},
			Quantity: 24,
		},
		{
			Branch:   model.Branch{Name: "District 2", Code: "D2"},
			Product:  model.Product{Name: "Green Tea", SKU: "SKU-TEA"},
			Quantity: 8,
		},
		{
			Branch:   model.Branch{Name: "District 2", Code: "D2"},
			Product:  model.Product{Name: "Cola 1.5l", SKU: "SKU-COLA-XL"},
			Quantity: 3,
		},
	}
}

func newInventoryRouter(svc service.InventoryService) *gin.Engine {
	guard := newTestGuard(map[string][]string{"staff": {"view-inventory"}})
	h := NewInventoryHandler(svc, guard)
	return newTestRouter(h.RegisterRoutes)
}

func TestListStockSearchFilters(t *testing.T) {
	r := newInventoryRouter(&fakeInventoryService{stock: stockFixture()})

	req := httptest.NewRequest(http.MethodGet, "/inventory/stock?search=cola", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.NewString(), "staff"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success    bool                 `json:"success"`
		Data       []model.BranchStock  `json:"data"`
		Pagination *response.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)

	require.Len(t, body.Data, 2)
	for _, row := range body.Data {
		assert.Contains(t, strings.ToLower(row.Product.Name), "cola")
	}
	require.NotNil(t, body.Pagination)
	assert.Equal(t, int64(2), body.Pagination.TotalItems)
	assert.Equal(t, 1, body.Pagination.CurrentPage)
}

func TestExportStockRowCountMatchesFilter(t *testing.T) {
	r := newInventoryRouter(&fakeInventoryService{stock: stockFixture()})

	req := httptest.NewRequest(http.MethodGet, "/inventory/stock/export?search=cola", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.NewString(), "staff"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	table, err := spreadsheet.Read(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Branch", "Product", "SKU", "Quantity"}, table.Headers)
	require.Len(t, table.Rows, 2)

	sku, ok := table.Rows[0].Get("SKU")
	require.True(t, ok)
	assert.Equal(t, "SKU-COLA", sku)
}

func TestAdjustStockWithoutIdentityRejected(t *testing.T) {
	// Route registered without the guard: the handler must refuse on its own
	// instead of dereferencing a missing identity.
	h := NewInventoryHandler(&fakeInventoryService{}, newTestGuard(nil))
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/adjust", h.AdjustStock)

	payload := `{"branch_id":"` + uuid.NewString() + `","product_id":"` + uuid.NewString() + `","delta":5}`
	req := httptest.NewRequest(http.MethodPost, "/adjust", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
