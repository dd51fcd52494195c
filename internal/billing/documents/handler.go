package documents

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/export"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

// HeaderIdempotencyKey makes document creation safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListDocumentsRequest{
		Type:   billing.DocumentType(q.Get("type")),
		Status: Status(q.Get("status")),
		Params: shared.ParseListParams(r),
	}
	for name, target := range map[string]*int64{"company_id": &req.CompanyID, "client_id": &req.ClientID} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.FieldError(name, "must be an integer"))
			return
		}
		*target = v
	}
	if req.Type != "" && !req.Type.Valid() {
		httpx.RespondError(w, httpx.FieldError("type", "must be one of invoice offer"))
		return
	}

	docs, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list documents failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(docs, req.Params, total))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, created, err := h.service.CreateIdempotent(r.Context(), r.Header.Get(HeaderIdempotencyKey), req)
	if err != nil {
		h.logError("create document failed", err)
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	httpx.JSON(w, status, doc)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateDocumentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logError("update document failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req StatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logError("change status failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Convert(r.Context(), id)
	if err != nil {
		h.logError("convert offer failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.service.Data(r.Context(), id, RenderOptions{Template: r.URL.Query().Get("template")})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	html, err := h.service.Preview(r.Context(), id, renderOptionsFromQuery(r))
	if err != nil {
		h.logError("preview failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	artifact, err := h.service.PDF(r.Context(), id, renderOptionsFromQuery(r))
	if err != nil {
		h.logError("pdf export failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

func (h *Handler) XLSX(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	artifact, err := h.service.XLSX(r.Context(), id)
	if err != nil {
		h.logError("xlsx export failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var opts RenderOptions
	if err := decodeOptional(w, r, &opts); err != nil {
		httpx.RespondError(w, err)
		return
	}
	link, err := h.service.Share(r.Context(), id, opts)
	if err != nil {
		h.logError("share failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var opts RenderOptions
	if err := decodeOptional(w, r, &opts); err != nil {
		httpx.RespondError(w, err)
		return
	}
	printer, err := h.service.Print(r.Context(), id, opts)
	if err != nil {
		h.logError("print failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"printer": printer})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ExportRequest
	if err := decodeOptional(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.DocumentID = id
	taskID, err := h.service.EnqueueExport(r.Context(), req)
	if err != nil {
		h.logError("enqueue export failed", err, slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	html, warnings, err := h.service.RenderAdhoc(r.Context(), req)
	if err != nil {
		h.logError("render failed", err)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeHTML)
	w.Header().Set("X-Render-Warnings", strconv.Itoa(len(warnings)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (h *Handler) Templates(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string][]string{"templates": h.service.Templates()})
}

// logError logs server-side failures; client errors are only returned.
func (h *Handler) logError(msg string, err error, attrs ...any) {
	var vErr *httpx.ValidationError
	if errors.As(err, &vErr) || errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrConflict) {
		return
	}
	h.logger.Error(msg, append(attrs, slog.Any("error", err))...)
}

func renderOptionsFromQuery(r *http.Request) RenderOptions {
	q := r.URL.Query()
	opts := RenderOptions{Template: q.Get("template")}
	theme := render.Theme{
		PrimaryColor: q.Get("primary_color"),
		AccentColor:  q.Get("accent_color"),
		TextColor:    q.Get("text_color"),
		FontFamily:   q.Get("font_family"),
	}
	if theme != (render.Theme{}) {
		opts.Theme = &theme
	}
	return opts
}

func decodeOptional(w http.ResponseWriter, r *http.Request, target any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return httpx.DecodeJSON(w, r, target)
}

func writeArtifact(w http.ResponseWriter, artifact export.Artifact) {
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}
