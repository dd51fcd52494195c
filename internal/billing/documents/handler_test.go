package documents

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
)

const createBody = `{
	"company_id": 1,
	"client_id": 2,
	"type": "invoice",
	"issue_date": "2025-01-15T00:00:00Z",
	"currency": "EUR",
	"discount_percent": "5",
	"items": [
		{"description": "Consulting", "unit": "h", "quantity": "2", "unit_price": "100", "discount_percent": "10", "tax_rate": "20"},
		{"description": "Travel", "quantity": 1, "unit_price": 50, "tax_rate": 10}
	]
}`

func newTestRouter(t *testing.T) (*chi.Mux, *fixture) {
	t.Helper()
	f := newFixture(t)
	router := chi.NewRouter()
	NewHandler(nil, f.svc).MountRoutes(router)
	return router, f
}

func do(router http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateIsIdempotent(t *testing.T) {
	router, f := newTestRouter(t)

	rec := do(router, http.MethodPost, "/documents", createBody, HeaderIdempotencyKey, "abc")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "INV-202501-0001", doc.Number)
	assert.Equal(t, "268.25", doc.Total.String())

	rec = do(router, http.MethodPost, "/documents", createBody, HeaderIdempotencyKey, "abc")
	require.Equal(t, http.StatusOK, rec.Code)
	var again Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, doc.ID, again.ID)
	assert.Len(t, f.repo.docs, 1)
}

func TestHandlerCreateRejectsUnknownFields(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/documents", `{"company_id": 1, "colour": "red"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandlerListAndShow(t *testing.T) {
	router, f := newTestRouter(t)
	doc := f.create(t, invoiceRequest())

	rec := do(router, http.MethodGet, "/documents?type=invoice&company_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items      []Document `json:"items"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Pagination.Total)
	require.Len(t, page.Items, 1)

	rec = do(router, http.MethodGet, "/documents?type=receipt", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/documents/"+itoa(doc.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"number":"INV-202501-0001"`)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/documents/404", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/documents/abc", "").Code)
}

func TestHandlerStatusAndConvert(t *testing.T) {
	router, f := newTestRouter(t)
	doc := f.create(t, invoiceRequest())
	path := "/documents/" + itoa(doc.ID)

	rec := do(router, http.MethodPost, path+"/status", `{"status": "PAID"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodPost, path+"/status", `{"status": "SENT"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"SENT"`)

	rec = do(router, http.MethodPatch, path, `{"notes": "too late"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodPost, path+"/convert", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerPreviewAndExports(t *testing.T) {
	router, f := newTestRouter(t)
	doc := f.create(t, invoiceRequest())
	path := "/documents/" + itoa(doc.ID)

	rec := do(router, http.MethodGet, path+"/preview?primary_color=%23ff0000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "#ff0000")

	rec = do(router, http.MethodGet, path+"/preview?template=modern", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, path+"/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice-INV-202501-0001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-stub", rec.Body.String())

	rec = do(router, http.MethodGet, path+"/xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	rec = do(router, http.MethodPost, path+"/share", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://share.test/")

	rec = do(router, http.MethodPost, path+"/print", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(router, http.MethodPost, path+"/export", `{"share": true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"task_id":"task-1"`)
	require.Len(t, f.enqueuer.requests, 1)
	assert.Equal(t, doc.ID, f.enqueuer.requests[0].DocumentID)

	rec = do(router, http.MethodGet, path+"/data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Globex")
}

func TestHandlerRenderAdhoc(t *testing.T) {
	router, _ := newTestRouter(t)
	body := `{"source": {"document": {"number": "A-1"}, "company": {"name": "Acme"}, "client": {"name": "Globex"}, "items": [{"description": "Design", "quantity": "x"}]}}`

	rec := do(router, http.MethodPost, "/documents/render", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Render-Warnings"))
	assert.Contains(t, rec.Body.String(), "A-1")
}

func TestHandlerTemplates(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/templates", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"templates": ["classic"]}`, rec.Body.String())
}

func TestHandlerProblemForUnavailablePDF(t *testing.T) {
	f := newFixture(t)
	f.svc.pdf = nil
	doc := f.create(t, invoiceRequest())
	router := chi.NewRouter()
	NewHandler(nil, f.svc).MountRoutes(router)

	rec := do(router, http.MethodGet, "/documents/"+itoa(doc.ID)+"/pdf", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Service Unavailable", problem.Title)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
