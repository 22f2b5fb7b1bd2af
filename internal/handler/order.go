package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kseng/restaurant-system/internal/service"
)

// SelectTable открывает сессию заказа для столика.
func (h *Handler) SelectTable(w http.ResponseWriter, r *http.Request) {
	table, err := urlParamInt(r, "table")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SelectTable(r.Context(), table); err != nil {
		h.handleError(w, err, "select table error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type draftLineRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity,omitempty"`
}

// AddDraftLine увеличивает количество блюда в черновике столика.
func (h *Handler) AddDraftLine(w http.ResponseWriter, r *http.Request) {
	table, err := urlParamInt(r, "table")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req draftLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.service.AddDraftLine(r.Context(), table, req.MenuItemID, req.Quantity); err != nil {
		h.handleError(w, err, "add draft line error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RemoveDraftLine уменьшает количество блюда в черновике столика.
func (h *Handler) RemoveDraftLine(w http.ResponseWriter, r *http.Request) {
	table, err := urlParamInt(r, "table")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	menuItemID, err := urlParamInt64(r, "menuID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	delta := 1
	if v := r.URL.Query().Get("quantity"); v != "" {
		delta, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	if err := h.service.RemoveDraftLine(r.Context(), table, menuItemID, delta); err != nil {
		h.handleError(w, err, "remove draft line error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type draftChargesRequest struct {
	TaxPercent      *decimal.Decimal `json:"tax_percent,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

// SetDraftCharges устанавливает проценты налога и скидки черновика.
func (h *Handler) SetDraftCharges(w http.ResponseWriter, r *http.Request) {
	table, err := urlParamInt(r, "table")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req draftChargesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.TaxPercent != nil {
		if err := h.service.SetDraftTax(table, *req.TaxPercent); err != nil {
			h.handleError(w, err, "set draft tax error")
			return
		}
	}
	if req.DiscountPercent != nil {
		if err := h.service.SetDraftDiscount(table, *req.DiscountPercent); err != nil {
			h.handleError(w, err, "set draft discount error")
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

type draftLineResponse struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

type draftResponse struct {
	TableNumber     int                 `json:"table_number"`
	Lines           []draftLineResponse `json:"lines"`
	TaxPercent      decimal.Decimal     `json:"tax_percent"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	GrandTotal      decimal.Decimal     `json:"grand_total"`
}

// GetDraft возвращает снимок черновика столика с итогами.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	table, err := urlParamInt(r, "table")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := h.service.DraftSnapshot(table)
	if err != nil {
		h.handleError(w, err, "get draft error")
		return
	}

	resp := draftResponse{
		TableNumber:     view.TableNumber,
		Lines:           make([]draftLineResponse, 0, len(view.Lines)),
		TaxPercent:      view.TaxPercent,
		DiscountPercent: view.DiscountPercent,
		Subtotal:        view.Subtotal,
		GrandTotal:      view.GrandTotal,
	}
	for _, l := range view.Lines {
		resp.Lines = append(resp.Lines, draftLineResponse{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// CommitDraft записывает позиции черновика как открытые строки заказа.
func (h *Handler) CommitDraft(w http.ResponseWriter, r *http.Request) {
	table, err := urlParamInt(r, "table")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.CommitDraft(r.Context(), table); err != nil {
		h.handleError(w, err, "commit draft error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ClearDraft отбрасывает черновик столика.
func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	table, err := urlParamInt(r, "table")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.service.ClearDraft(table)
	w.WriteHeader(http.StatusOK)
}

type generateInvoiceRequest struct {
	TableNumber int `json:"table_number"`
}

// GenerateInvoice консолидирует открытые позиции столика в новый счёт.
func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	var req generateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.GenerateInvoice(r.Context(), req.TableNumber)
	if err != nil {
		h.handleError(w, err, "generate invoice error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int64{"invoice_id": id})
}

type invoiceLineResponse struct {
	OrderID         int64           `json:"order_id"`
	TableNumber     int             `json:"table_number"`
	CreatedAt       string          `json:"created_at"`
	MenuName        string          `json:"menu_name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
}

type invoiceResponse struct {
	ID         int64                 `json:"id"`
	CreatedAt  string                `json:"created_at"`
	IsOpen     bool                  `json:"is_open"`
	Lines      []invoiceLineResponse `json:"lines"`
	GrandTotal decimal.Decimal       `json:"grand_total"`
}

// GetInvoice возвращает счёт со строками и пересчитанным итогом.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	inv, err := h.service.Invoice(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "get invoice error")
		return
	}

	lines, err := h.service.InvoiceLines(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "get invoice lines error")
		return
	}

	total, err := h.service.InvoiceGrandTotal(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "get invoice total error")
		return
	}

	resp := invoiceResponse{
		ID:         inv.ID,
		CreatedAt:  inv.CreatedAt.Format(time.RFC3339),
		IsOpen:     inv.IsOpen,
		Lines:      make([]invoiceLineResponse, 0, len(lines)),
		GrandTotal: total,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, invoiceLineResponse{
			OrderID:         l.OrderID,
			TableNumber:     l.TableNumber,
			CreatedAt:       l.CreatedAt.Format(time.RFC3339),
			MenuName:        l.MenuName,
			UnitPrice:       l.UnitPrice,
			Quantity:        l.Quantity,
			TaxPercent:      l.TaxPercent,
			DiscountPercent: l.DiscountPercent,
			Total:           l.Total(),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type lineEditRequest struct {
	OrderID         int64           `json:"order_id"`
	MenuName        string          `json:"menu_name"`
	Quantity        int             `json:"quantity"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type editInvoiceRequest struct {
	Updates        []lineEditRequest `json:"updates"`
	RemoveOrderIDs []int64           `json:"remove_order_ids"`
}

// EditInvoice применяет пакет правок и удалений строк счёта.
func (h *Handler) EditInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req editInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	edits := make([]service.LineEdit, 0, len(req.Updates))
	for _, u := range req.Updates {
		edits = append(edits, service.LineEdit{
			OrderID:         u.OrderID,
			MenuName:        u.MenuName,
			Quantity:        u.Quantity,
			TaxPercent:      u.TaxPercent,
			DiscountPercent: u.DiscountPercent,
		})
	}

	if err := h.service.EditInvoiceLines(r.Context(), id, edits, req.RemoveOrderIDs); err != nil {
		h.handleError(w, err, "edit invoice error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// VoidInvoice аннулирует счёт.
func (h *Handler) VoidInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.VoidInvoice(r.Context(), id); err != nil {
		h.handleError(w, err, "void invoice error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type invoiceSummaryResponse struct {
	InvoiceID  int64           `json:"invoice_id"`
	CreatedAt  string          `json:"created_at"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// ListInvoices возвращает активные счета, опционально ограниченные окном from/to.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		to = &t
	}

	summaries, err := h.service.ActiveInvoices(r.Context(), from, to)
	if err != nil {
		h.handleError(w, err, "list invoices error")
		return
	}

	resp := make([]invoiceSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, invoiceSummaryResponse{
			InvoiceID:  s.ID,
			CreatedAt:  s.CreatedAt.Format(time.RFC3339),
			GrandTotal: s.GrandTotal,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type salesReportResponse struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

// SalesReport возвращает сумму продаж за период today/week/month.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	period, err := service.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.handleError(w, err, "sales report error")
		return
	}

	total, err := h.service.SalesTotal(r.Context(), period)
	if err != nil {
		h.handleError(w, err, "sales report error")
		return
	}

	h.writeJSON(w, http.StatusOK, salesReportResponse{
		Period: string(period),
		Total:  total,
	})
}
