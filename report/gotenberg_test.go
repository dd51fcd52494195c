package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
)

func TestRenderHTMLPostsMultipartForm(t *testing.T) {
	var gotFields map[string]string
	var gotHTML string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		file, header, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "index.html", header.Filename)
		data, _ := io.ReadAll(file)
		gotHTML = string(data)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	pdf, err := NewClient(server.URL+"/").RenderHTML(context.Background(), "<html></html>", A4())

	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "<html></html>", gotHTML)
	assert.Equal(t, "8.27", gotFields["paperWidth"])
	assert.Equal(t, "11.7", gotFields["paperHeight"])
	assert.Equal(t, "true", gotFields["preferCssPageSize"])
	assert.Equal(t, "0", gotFields["marginTop"])
}

func TestRenderHTMLStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).RenderHTML(context.Background(), "<html></html>", PaperOptions{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Contains(t, err.Error(), "chromium crashed")
}

func TestRenderHTMLRequiresEndpoint(t *testing.T) {
	_, err := NewClient("").RenderHTML(context.Background(), "<html></html>", A4())
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"up"}`))
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).Ping(context.Background()))
	require.Error(t, NewClient(server.URL+"/down").Ping(context.Background()))
}

func TestSampleHTMLRoute(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(NewClient(""), render.NewRegistry(), nil).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sample.html", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Equal(t, 1, strings.Count(body, "INV-SAMPLE-0001"))
	assert.Contains(t, body, "EUR 180.00")
}

func TestSamplePDFRouteGatewayError(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(NewClient(""), render.NewRegistry(), nil).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sample", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
