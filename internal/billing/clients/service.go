package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	client := Client{
		CompanyID:    req.CompanyID,
		CompanyName:  strings.TrimSpace(req.CompanyName),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		Phone:        req.Phone,
		Website:      req.Website,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		PostalCode:   req.PostalCode,
		City:         req.City,
		Country:      req.Country,
		TaxID:        req.TaxID,
		Notes:        req.Notes,
		IsActive:     true,
	}
	if client.DisplayName() == "" {
		return nil, httpx.FieldError("company_name", "company name or person name is required")
	}

	id, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	merged := *existing
	set := func(col string, v *string, field *string) {
		if v == nil {
			return
		}
		val := strings.TrimSpace(*v)
		updates[col] = val
		if field != nil {
			*field = val
		}
	}
	set("company_name", req.CompanyName, &merged.CompanyName)
	set("first_name", req.FirstName, &merged.FirstName)
	set("last_name", req.LastName, &merged.LastName)
	set("email", req.Email, nil)
	set("phone", req.Phone, nil)
	set("website", req.Website, nil)
	set("address_line1", req.AddressLine1, nil)
	set("address_line2", req.AddressLine2, nil)
	set("postal_code", req.PostalCode, nil)
	set("city", req.City, nil)
	set("country", req.Country, nil)
	set("tax_id", req.TaxID, nil)
	set("notes", req.Notes, nil)
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if merged.DisplayName() == "" {
		return nil, httpx.FieldError("company_name", "company name or person name is required")
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	req.Params = req.Params.Normalize()
	return s.repo.List(ctx, req)
}
