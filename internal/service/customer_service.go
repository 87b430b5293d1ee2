package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	"shopadmin/internal/spreadsheet"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCustomerNotFound = errors.New("customer not found")

// --- DTOs ---

type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Note    string `json:"note"`
}

// ImportRowResult reports the outcome of one spreadsheet row. Row numbers are
// 1-based and count data rows, not the header.
type ImportRowResult struct {
	Row   int    `json:"row"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error,omitempty"`
}

type ImportResult struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Rows    []ImportRowResult `json:"rows"`
}

// --- Interface ---

type CustomerService interface {
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	CreateCustomer(ctx context.Context, actorID string, req CustomerRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, actorID, id string, req CustomerRequest) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, actorID, id string) error
	ImportFromSpreadsheet(ctx context.Context, actorID string, r io.Reader) (*ImportResult, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository, auditRepo repository.AuditRepository) CustomerService {
	return &customerService{customerRepo: customerRepo, auditRepo: auditRepo}
}

func (s *customerService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.customerRepo.ListAll(ctx)
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	return customer, err
}

func (s *customerService) CreateCustomer(ctx context.Context, actorID string, req CustomerRequest) (*model.Customer, error) {
	customer := &model.Customer{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Note:     req.Note,
		IsActive: true,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionCreateCustomer, customer.ID.String(), customer.Name, nil)
	return customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, actorID, id string, req CustomerRequest) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.Note = req.Note
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionUpdateCustomer, customer.ID.String(), customer.Name, nil)
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, actorID, id string) error {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return ErrCustomerNotFound
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCustomerNotFound
	}
	if err != nil {
		return err
	}

	if err := s.customerRepo.Delete(ctx, customerID); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	recordAudit(ctx, s.auditRepo, actorID, model.ActionDeleteCustomer, customer.ID.String(), customer.Name, nil)
	return nil
}

// ImportFromSpreadsheet creates a customer per data row. Bad rows are
// reported individually and never abort the rest of the file; a file with a
// missing or empty sheet fails as a whole.
func (s *customerService) ImportFromSpreadsheet(ctx context.Context, actorID string, r io.Reader) (*ImportResult, error) {
	table, err := spreadsheet.Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	result := &ImportResult{Rows: make([]ImportRowResult, 0, len(table.Rows))}
	for i, row := range table.Rows {
		rowNum := i + 1

		name, _ := row.Get("name")
		name = strings.TrimSpace(name)
		if name == "" {
			result.Skipped++
			result.Rows = append(result.Rows, ImportRowResult{Row: rowNum, Error: "missing name"})
			continue
		}

		email, _ := row.Get("email")
		email = strings.TrimSpace(email)
		if email != "" && !strings.Contains(email, "@") {
			result.Skipped++
			result.Rows = append(result.Rows, ImportRowResult{Row: rowNum, Name: name, Error: "invalid email"})
			continue
		}

		phone, _ := row.Get("phone")
		address, _ := row.Get("address")
		note, _ := row.Get("note")

		customer := &model.Customer{
			Name:     name,
			Email:    email,
			Phone:    strings.TrimSpace(phone),
			Address:  strings.TrimSpace(address),
			Note:     strings.TrimSpace(note),
			IsActive: true,
		}
		if err := s.customerRepo.Create(ctx, customer); err != nil {
			result.Skipped++
			result.Rows = append(result.Rows, ImportRowResult{Row: rowNum, Name: name, Error: "failed to save"})
			continue
		}

		result.Created++
		result.Rows = append(result.Rows, ImportRowResult{Row: rowNum, Name: name})
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionImportCustomer, "", "", map[string]interface{}{
		"created": result.Created,
		"skipped": result.Skipped,
	})
	return result, nil
}
