package companies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

type mockRepository struct {
	companies map[int64]*Company
	nextID    int64
	listErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{companies: make(map[int64]*Company), nextID: 1}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %d: %w", id, httpx.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) GetByCode(_ context.Context, code string) (*Company, error) {
	for _, c := range m.companies {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *mockRepository) List(_ context.Context, params shared.ListParams) ([]Company, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []Company
	for id := int64(1); id < m.nextID; id++ {
		if c, ok := m.companies[id]; ok && strings.Contains(c.Name, params.Search) {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, c Company) (int64, error) {
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.companies[c.ID] = &c
	m.nextID++
	return c.ID, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	c, ok := m.companies[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["iban"]; ok {
		c.IBAN = v.(string)
	}
	if v, ok := updates["default_currency"]; ok {
		c.DefaultCurrency = v.(string)
	}
	if v, ok := updates["default_language"]; ok {
		c.DefaultLanguage = v.(string)
	}
	return nil
}

func validCreate() CreateCompanyRequest {
	return CreateCompanyRequest{
		Code:         "ACME",
		Name:         "Acme GmbH",
		AddressLine1: "Hauptstr. 1",
		City:         "Berlin",
		IBAN:         "DE89 3704 0044 0532 0130 00",
		Email:        "billing@acme.test",
	}
}

func TestServiceCreateAppliesDefaults(t *testing.T) {
	svc := NewService(newMockRepository())

	company, err := svc.Create(context.Background(), validCreate())

	require.NoError(t, err)
	assert.Equal(t, int64(1), company.ID)
	assert.Equal(t, "DE89370400440532013000", company.IBAN)
	assert.Equal(t, "EUR", company.DefaultCurrency)
	assert.Equal(t, "en", company.DefaultLanguage)
}

func TestServiceCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreate())

	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestServiceCreateValidates(t *testing.T) {
	svc := NewService(newMockRepository())
	req := validCreate()
	req.Name = "  "
	req.Logo = "https://example.com/logo.png"
	req.DefaultCurrency = "EURO"

	_, err := svc.Create(context.Background(), req)

	var vErr *httpx.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "Name")
	assert.Contains(t, vErr.Fields, "Logo")
	assert.Contains(t, vErr.Fields, "DefaultCurrency")
}

func TestServiceUpdate(t *testing.T) {
	svc := NewService(newMockRepository())
	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	name := "Acme AG"
	currency := "chf"
	lang := "de-CH"
	updated, err := svc.Update(context.Background(), created.ID, UpdateCompanyRequest{Name: &name, DefaultCurrency: &currency, DefaultLanguage: &lang})

	require.NoError(t, err)
	assert.Equal(t, "Acme AG", updated.Name)
	assert.Equal(t, "CHF", updated.DefaultCurrency)
	assert.Equal(t, "de", updated.DefaultLanguage)

	blank := " "
	_, err = svc.Update(context.Background(), created.ID, UpdateCompanyRequest{Name: &blank})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Update(context.Background(), 99, UpdateCompanyRequest{Name: &name})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func newTestRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, NewService(repo)).MountRoutes(r)
	return r
}

func TestHandlerCreateAndShow(t *testing.T) {
	router := newTestRouter(newMockRepository())

	body, _ := json.Marshal(validCreate())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(string(body))))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/companies/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var company Company
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&company))
	assert.Equal(t, "ACME", company.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/companies/2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestHandlerCreateRejectsUnknownFields(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(`{"code":"A","name":"B","owner":"x"}`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerList(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	router := newTestRouter(repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/companies?q=Acme", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var page shared.Page[Company]
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Pagination.Total)

	repo.listErr = errors.New("db down")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/companies", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
