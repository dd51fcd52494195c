package companies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateCompanyRequest) (*Company, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return nil, fmt.Errorf("check existing company: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("company code %q: %w", req.Code, httpx.ErrDuplicate)
	}

	company := Company{
		Code:            req.Code,
		Name:            req.Name,
		ContactName:     req.ContactName,
		AddressLine1:    req.AddressLine1,
		AddressLine2:    req.AddressLine2,
		PostalCode:      req.PostalCode,
		City:            req.City,
		Country:         req.Country,
		TaxID:           req.TaxID,
		Email:           req.Email,
		Phone:           req.Phone,
		Website:         req.Website,
		BankName:        req.BankName,
		AccountHolder:   req.AccountHolder,
		IBAN:            strings.ReplaceAll(req.IBAN, " ", ""),
		BIC:             req.BIC,
		PaymentLink:     req.PaymentLink,
		Logo:            req.Logo,
		Signature:       req.Signature,
		Stamp:           req.Stamp,
		DefaultCurrency: billing.NormalizeCurrency(req.DefaultCurrency, billing.DefaultCurrency),
		DefaultLanguage: billing.MatchLanguage(req.DefaultLanguage).String(),
	}

	id, err := s.repo.Create(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCompanyRequest) (*Company, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("name", req.Name)
	set("contact_name", req.ContactName)
	set("address_line1", req.AddressLine1)
	set("address_line2", req.AddressLine2)
	set("postal_code", req.PostalCode)
	set("city", req.City)
	set("country", req.Country)
	set("tax_id", req.TaxID)
	set("email", req.Email)
	set("phone", req.Phone)
	set("website", req.Website)
	set("bank_name", req.BankName)
	set("account_holder", req.AccountHolder)
	set("bic", req.BIC)
	set("payment_link", req.PaymentLink)
	set("logo", req.Logo)
	set("signature", req.Signature)
	set("stamp", req.Stamp)
	if req.IBAN != nil {
		updates["iban"] = strings.ReplaceAll(*req.IBAN, " ", "")
	}
	if req.DefaultCurrency != nil {
		updates["default_currency"] = billing.NormalizeCurrency(*req.DefaultCurrency, billing.DefaultCurrency)
	}
	if req.DefaultLanguage != nil {
		updates["default_language"] = billing.MatchLanguage(*req.DefaultLanguage).String()
	}
	if name, ok := updates["name"]; ok && name == "" {
		return nil, httpx.FieldError("name", "is required")
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, params shared.ListParams) ([]Company, int, error) {
	return s.repo.List(ctx, params.Normalize())
}
