// Package handler содержит HTTP-обработчики API системы управления рестораном.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kseng/restaurant-system/internal/middleware"
	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/repository"
	"github.com/kseng/restaurant-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, username, password string) (int64, error)
	AuthenticateUser(ctx context.Context, username, password string) (int64, error)

	AddMenuItem(ctx context.Context, name string, unitPrice decimal.Decimal, imageSource string) (int64, error)
	UpdateMenuItem(ctx context.Context, id int64, name string, unitPrice decimal.Decimal, imageSource string) error
	DeleteMenuItem(ctx context.Context, id int64) error
	ListMenuItems(ctx context.Context) ([]model.MenuItem, error)

	AddTable(ctx context.Context, number int, description string) error
	UpdateTable(ctx context.Context, number int, description string) error
	DeleteTable(ctx context.Context, number int) error
	ListTables(ctx context.Context) ([]model.Table, error)
	ListTableNumbers(ctx context.Context) ([]int, error)

	AddReservation(ctx context.Context, in service.ReservationInput) (int64, error)
	UpdateReservation(ctx context.Context, id int64, in service.ReservationInput) error
	DeleteReservation(ctx context.Context, id int64) error
	ListReservations(ctx context.Context) ([]model.Reservation, error)

	SelectTable(ctx context.Context, tableNumber int) error
	AddDraftLine(ctx context.Context, tableNumber int, menuItemID int64, delta int) error
	RemoveDraftLine(ctx context.Context, tableNumber int, menuItemID int64, delta int) error
	SetDraftTax(tableNumber int, percent decimal.Decimal) error
	SetDraftDiscount(tableNumber int, percent decimal.Decimal) error
	DraftSnapshot(tableNumber int) (*service.DraftView, error)
	CommitDraft(ctx context.Context, tableNumber int) error
	ClearDraft(tableNumber int)

	GenerateInvoice(ctx context.Context, tableNumber int) (int64, error)
	Invoice(ctx context.Context, id int64) (*model.Invoice, error)
	InvoiceLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error)
	InvoiceGrandTotal(ctx context.Context, invoiceID int64) (decimal.Decimal, error)
	EditInvoiceLines(ctx context.Context, invoiceID int64, edits []service.LineEdit, removeOrderIDs []int64) error
	VoidInvoice(ctx context.Context, invoiceID int64) error

	ActiveInvoices(ctx context.Context, from, to *time.Time) ([]service.InvoiceSummary, error)
	SalesTotal(ctx context.Context, period service.Period) (decimal.Decimal, error)
}

// Handler реализует HTTP-обработчики API системы управления рестораном.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

// handleError переводит ошибку бизнес-логики в HTTP-статус.
// Неопознанные ошибки логируются и отдаются как 500.
func (h *Handler) handleError(w http.ResponseWriter, err error, msg string) {
	var status int
	switch {
	case errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidPercent),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidTableNumber),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidPeriod):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrUnknownTable),
		errors.Is(err, service.ErrUnknownMenuItem),
		errors.Is(err, service.ErrNoActiveDraft),
		errors.Is(err, repository.ErrMenuItemNotFound),
		errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound),
		errors.Is(err, repository.ErrOrderLineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, repository.ErrNoOpenOrders),
		errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrTableExists),
		errors.Is(err, repository.ErrReservationOverlap),
		errors.Is(err, repository.ErrMenuItemInUse),
		errors.Is(err, repository.ErrTableInUse):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrStoreBusy):
		status = http.StatusServiceUnavailable
	default:
		h.logger.Error(msg, zap.Error(err))
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func urlParamInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func urlParamInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового сотрудника.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(w, err, "register user error")
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

// Login выполняет аутентификацию сотрудника и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(w, err, "login user error")
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

type menuItemRequest struct {
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageSource string          `json:"image_source,omitempty"`
}

type menuItemResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
}

// ListMenu возвращает все позиции меню.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMenuItems(r.Context())
	if err != nil {
		h.handleError(w, err, "list menu error")
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, menuItemResponse{
			ID:        m.ID,
			Name:      m.Name,
			UnitPrice: m.UnitPrice,
			Image:     m.Image,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// AddMenuItem добавляет позицию меню.
func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.AddMenuItem(r.Context(), req.Name, req.UnitPrice, req.ImageSource)
	if err != nil {
		h.handleError(w, err, "add menu item error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateMenuItem обновляет позицию меню.
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateMenuItem(r.Context(), id, req.Name, req.UnitPrice, req.ImageSource); err != nil {
		h.handleError(w, err, "update menu item error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteMenuItem удаляет позицию меню.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteMenuItem(r.Context(), id); err != nil {
		h.handleError(w, err, "delete menu item error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type tableRequest struct {
	Number      int    `json:"number"`
	Description string `json:"description"`
}

// ListTables возвращает все столики.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.ListTables(r.Context())
	if err != nil {
		h.handleError(w, err, "list tables error")
		return
	}

	h.writeJSON(w, http.StatusOK, tables)
}

// AddTable регистрирует столик.
func (h *Handler) AddTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.AddTable(r.Context(), req.Number, req.Description); err != nil {
		h.handleError(w, err, "add table error")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// UpdateTable обновляет описание столика.
func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	number, err := urlParamInt(r, "number")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateTable(r.Context(), number, req.Description); err != nil {
		h.handleError(w, err, "update table error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteTable удаляет столик.
func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	number, err := urlParamInt(r, "number")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTable(r.Context(), number); err != nil {
		h.handleError(w, err, "delete table error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type reservationRequest struct {
	Tables       []int     `json:"tables"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

type reservationResponse struct {
	ID           int64  `json:"id"`
	Tables       []int  `json:"tables"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// ListReservations возвращает все бронирования.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.service.ListReservations(r.Context())
	if err != nil {
		h.handleError(w, err, "list reservations error")
		return
	}

	resp := make([]reservationResponse, 0, len(reservations))
	for _, rv := range reservations {
		resp = append(resp, reservationResponse{
			ID:           rv.ID,
			Tables:       rv.Tables,
			CustomerName: rv.CustomerName,
			Phone:        rv.Phone,
			StartTime:    rv.StartTime.Format(time.RFC3339),
			EndTime:      rv.EndTime.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// AddReservation создаёт бронирование.
func (h *Handler) AddReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.AddReservation(r.Context(), service.ReservationInput{
		Tables:       req.Tables,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		h.handleError(w, err, "add reservation error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateReservation заменяет данные бронирования.
func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err = h.service.UpdateReservation(r.Context(), id, service.ReservationInput{
		Tables:       req.Tables,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		h.handleError(w, err, "update reservation error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteReservation удаляет бронирование.
func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteReservation(r.Context(), id); err != nil {
		h.handleError(w, err, "delete reservation error")
		return
	}

	w.WriteHeader(http.StatusOK)
}
