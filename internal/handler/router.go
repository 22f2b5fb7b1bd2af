package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/kseng/restaurant-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware системы управления рестораном.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Route("/menu", func(r chi.Router) {
				r.Get("/", h.ListMenu)
				r.Post("/", h.AddMenuItem)
				r.Put("/{id}", h.UpdateMenuItem)
				r.Delete("/{id}", h.DeleteMenuItem)
			})

			r.Route("/tables", func(r chi.Router) {
				r.Get("/", h.ListTables)
				r.Post("/", h.AddTable)
				r.Put("/{number}", h.UpdateTable)
				r.Delete("/{number}", h.DeleteTable)
			})

			r.Route("/reservations", func(r chi.Router) {
				r.Get("/", h.ListReservations)
				r.Post("/", h.AddReservation)
				r.Put("/{id}", h.UpdateReservation)
				r.Delete("/{id}", h.DeleteReservation)
			})

			r.Route("/draft/{table}", func(r chi.Router) {
				r.Post("/", h.SelectTable)
				r.Get("/", h.GetDraft)
				r.Delete("/", h.ClearDraft)
				r.Post("/items", h.AddDraftLine)
				r.Delete("/items/{menuID}", h.RemoveDraftLine)
				r.Put("/charges", h.SetDraftCharges)
				r.Post("/commit", h.CommitDraft)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.ListInvoices)
				r.Post("/", h.GenerateInvoice)
				r.Get("/{id}", h.GetInvoice)
				r.Put("/{id}", h.EditInvoice)
				r.Post("/{id}/void", h.VoidInvoice)
			})

			r.Get("/reports/sales", h.SalesReport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
