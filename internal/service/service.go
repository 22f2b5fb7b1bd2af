// Package service реализует бизнес-логику системы управления рестораном.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/repository"
)

// ErrEmptyName возвращается, если обязательное название пустое.
var (
	ErrEmptyName = errors.New("name must not be empty")
	// ErrInvalidPrice возвращается при отрицательной цене.
	ErrInvalidPrice = errors.New("unit price must be non-negative")
	// ErrInvalidPercent возвращается, если процент налога или скидки вне диапазона [0, 100].
	ErrInvalidPercent = errors.New("percent must be between 0 and 100")
	// ErrInvalidQuantity возвращается при неположительном количестве.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInvalidTableNumber возвращается при неположительном номере столика.
	ErrInvalidTableNumber = errors.New("table number must be positive")
	// ErrUnknownTable возвращается, если столик не зарегистрирован.
	ErrUnknownTable = errors.New("table is not registered")
	// ErrUnknownMenuItem возвращается, если блюдо не удалось найти в меню.
	ErrUnknownMenuItem = errors.New("unknown menu item")
	// ErrNoActiveDraft возвращается, если для столика нет открытого черновика заказа.
	ErrNoActiveDraft = errors.New("no active draft for table")
	// ErrEmptyOrder возвращается при попытке подтвердить черновик без позиций.
	ErrEmptyOrder = errors.New("draft order has no lines")
	// ErrInvalidCredentials возвращается при неверной паре имя/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidPeriod возвращается при неизвестном периоде отчёта.
	ErrInvalidPeriod = errors.New("unknown report period")
	// ErrInvalidTimeRange возвращается, если начало окна не раньше его конца.
	ErrInvalidTimeRange = errors.New("start of range must precede its end")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, username string, passwordHash []byte) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	CreateMenuItem(ctx context.Context, name string, unitPrice decimal.Decimal, image string) (int64, error)
	GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error)
	GetMenuItemByName(ctx context.Context, name string) (*model.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, name string, unitPrice decimal.Decimal, image string) error
	DeleteMenuItem(ctx context.Context, id int64) error

	CreateTable(ctx context.Context, number int, description string) error
	ListTables(ctx context.Context) ([]model.Table, error)
	TableExists(ctx context.Context, number int) (bool, error)
	UpdateTable(ctx context.Context, number int, description string) error
	DeleteTable(ctx context.Context, number int) error

	CreateReservation(ctx context.Context, res model.Reservation) (int64, error)
	UpdateReservation(ctx context.Context, res model.Reservation) error
	DeleteReservation(ctx context.Context, id int64) error
	ListReservations(ctx context.Context) ([]model.Reservation, error)

	CreateOrderLines(ctx context.Context, lines []model.OrderLine) error
	GenerateInvoice(ctx context.Context, tableNumber int) (int64, time.Time, error)
	GetInvoice(ctx context.Context, id int64) (*model.Invoice, error)
	GetInvoiceLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error)
	ListActiveInvoices(ctx context.Context, from, to *time.Time) ([]model.Invoice, error)
	VoidInvoice(ctx context.Context, id int64) error
	EditInvoiceLines(ctx context.Context, invoiceID int64, updates []repository.LineUpdate, removeOrderIDs []int64) error
}

// Service содержит бизнес-логику системы управления рестораном.
type Service struct {
	repo     Repository
	logger   *zap.Logger
	imageDir string

	draftsMu sync.Mutex
	drafts   map[int]*model.DraftOrder

	now func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием и каталогом изображений.
func NewService(repo Repository, logger *zap.Logger, imageDir string) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		imageDir: imageDir,
		drafts:   make(map[int]*model.DraftOrder),
		now:      time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового сотрудника.
func (s *Service) RegisterUser(ctx context.Context, username, password string) (int64, error) {
	if username == "" {
		return 0, ErrEmptyName
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, username, hashed)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет имя и пароль сотрудника и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, username, password string) (int64, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}
