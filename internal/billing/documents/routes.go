package documents

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/templates", h.Templates)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/render", h.Render)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Show)
			r.Patch("/", h.Update)
			r.Post("/status", h.ChangeStatus)
			r.Post("/convert", h.Convert)
			r.Get("/data", h.Data)
			r.Get("/preview", h.Preview)
			r.Get("/pdf", h.PDF)
			r.Get("/xlsx", h.XLSX)
			r.Post("/share", h.Share)
			r.Post("/print", h.Print)
			r.Post("/export", h.Export)
		})
	})
}
