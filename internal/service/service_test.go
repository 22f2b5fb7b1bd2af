package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/repository"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type stubRepo struct {
	createUserID  int64
	createUserErr error

	getUser    *model.User
	getUserErr error

	menuItems map[int64]model.MenuItem

	createdMenuItem *model.MenuItem
	updatedMenuItem *model.MenuItem
	deleteMenuErr   error

	tables         []model.Table
	createTableErr error

	reservations      []model.Reservation
	createdRes        *model.Reservation
	createResErr      error
	createResID       int64
	updatedRes        *model.Reservation
	deletedResID      int64
	deleteResErr      error

	createdLines  []model.OrderLine
	createLineErr error

	genInvoiceID  int64
	genInvoiceErr error
	genTable      int

	invoice    *model.Invoice
	invoiceErr error

	invoiceLines    map[int64][]model.InvoiceLine
	invoiceLinesErr error

	activeInvoices    []model.Invoice
	activeInvoicesErr error
	listedFrom        *time.Time
	listedTo          *time.Time

	voidedID int64
	voidErr  error

	editedInvoiceID int64
	editedUpdates   []repository.LineUpdate
	editedRemovals  []int64
	editErr         error
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, username string, passwordHash []byte) (int64, error) {
	return s.createUserID, s.createUserErr
}

func (s *stubRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	return s.getUser, nil
}

func (s *stubRepo) CreateMenuItem(ctx context.Context, name string, unitPrice decimal.Decimal, image string) (int64, error) {
	s.createdMenuItem = &model.MenuItem{Name: name, UnitPrice: unitPrice, Image: image}
	return 1, nil
}

func (s *stubRepo) GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error) {
	if item, ok := s.menuItems[id]; ok {
		return &item, nil
	}
	return nil, repository.ErrMenuItemNotFound
}

func (s *stubRepo) GetMenuItemByName(ctx context.Context, name string) (*model.MenuItem, error) {
	for _, item := range s.menuItems {
		if item.Name == name {
			return &item, nil
		}
	}
	return nil, repository.ErrMenuItemNotFound
}

func (s *stubRepo) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	items := make([]model.MenuItem, 0, len(s.menuItems))
	for _, item := range s.menuItems {
		items = append(items, item)
	}
	return items, nil
}

func (s *stubRepo) UpdateMenuItem(ctx context.Context, id int64, name string, unitPrice decimal.Decimal, image string) error {
	s.updatedMenuItem = &model.MenuItem{ID: id, Name: name, UnitPrice: unitPrice, Image: image}
	return nil
}

func (s *stubRepo) DeleteMenuItem(ctx context.Context, id int64) error {
	return s.deleteMenuErr
}

func (s *stubRepo) CreateTable(ctx context.Context, number int, description string) error {
	return s.createTableErr
}

func (s *stubRepo) ListTables(ctx context.Context) ([]model.Table, error) {
	return s.tables, nil
}

func (s *stubRepo) TableExists(ctx context.Context, number int) (bool, error) {
	for _, t := range s.tables {
		if t.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) UpdateTable(ctx context.Context, number int, description string) error {
	return nil
}

func (s *stubRepo) DeleteTable(ctx context.Context, number int) error {
	return nil
}

func (s *stubRepo) CreateReservation(ctx context.Context, res model.Reservation) (int64, error) {
	if s.createResErr != nil {
		return 0, s.createResErr
	}
	s.createdRes = &res
	return s.createResID, nil
}

func (s *stubRepo) UpdateReservation(ctx context.Context, res model.Reservation) error {
	s.updatedRes = &res
	return nil
}

func (s *stubRepo) DeleteReservation(ctx context.Context, id int64) error {
	s.deletedResID = id
	return s.deleteResErr
}

func (s *stubRepo) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.reservations, nil
}

func (s *stubRepo) CreateOrderLines(ctx context.Context, lines []model.OrderLine) error {
	if s.createLineErr != nil {
		return s.createLineErr
	}
	s.createdLines = append(s.createdLines, lines...)
	return nil
}

func (s *stubRepo) GenerateInvoice(ctx context.Context, tableNumber int) (int64, time.Time, error) {
	s.genTable = tableNumber
	if s.genInvoiceErr != nil {
		return 0, time.Time{}, s.genInvoiceErr
	}
	return s.genInvoiceID, time.Now(), nil
}

func (s *stubRepo) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	if s.invoiceErr != nil {
		return nil, s.invoiceErr
	}
	return s.invoice, nil
}

func (s *stubRepo) GetInvoiceLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error) {
	if s.invoiceLinesErr != nil {
		return nil, s.invoiceLinesErr
	}
	return s.invoiceLines[invoiceID], nil
}

func (s *stubRepo) ListActiveInvoices(ctx context.Context, from, to *time.Time) ([]model.Invoice, error) {
	s.listedFrom = from
	s.listedTo = to
	if s.activeInvoicesErr != nil {
		return nil, s.activeInvoicesErr
	}
	return s.activeInvoices, nil
}

func (s *stubRepo) VoidInvoice(ctx context.Context, id int64) error {
	s.voidedID = id
	return s.voidErr
}

func (s *stubRepo) EditInvoiceLines(ctx context.Context, invoiceID int64, updates []repository.LineUpdate, removeOrderIDs []int64) error {
	if s.editErr != nil {
		return s.editErr
	}
	s.editedInvoiceID = invoiceID
	s.editedUpdates = updates
	s.editedRemovals = removeOrderIDs
	return nil
}

func newTestService(repo *stubRepo, imageDir string) *Service {
	return NewService(repo, zap.NewNop(), imageDir)
}

func TestRegisterUser_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{
		createUserErr: repository.ErrUserExists,
	}
	svc := newTestService(repo, t.TempDir())

	_, err := svc.RegisterUser(context.Background(), "admin", "123")
	if !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterUser_EmptyUsername(t *testing.T) {
	svc := newTestService(&stubRepo{}, t.TempDir())

	_, err := svc.RegisterUser(context.Background(), "", "123")
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	repo := &stubRepo{
		getUser: &model.User{
			ID:           1,
			Username:     "admin",
			PasswordHash: hashed,
		},
	}
	svc := newTestService(repo, t.TempDir())

	id, err := svc.AuthenticateUser(context.Background(), "admin", "correct")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 {
		t.Fatalf("user id = %d, want 1", id)
	}

	_, err = svc.AuthenticateUser(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUser_UnknownUser(t *testing.T) {
	repo := &stubRepo{
		getUserErr: repository.ErrUserNotFound,
	}
	svc := newTestService(repo, t.TempDir())

	_, err := svc.AuthenticateUser(context.Background(), "ghost", "123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
