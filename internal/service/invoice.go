package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/repository"
	"github.com/kseng/restaurant-system/internal/validation"
)

// LineEdit описывает правку одной строки счёта. Блюдо задаётся названием
// и разрешается в идентификатор до применения пакета.
type LineEdit struct {
	OrderID         int64
	MenuName        string
	Quantity        int
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
}

// GenerateInvoice консолидирует открытые позиции заказа столика в новый счёт
// и возвращает его идентификатор. Для столика без открытых позиций счёт
// не создаётся.
func (s *Service) GenerateInvoice(ctx context.Context, tableNumber int) (int64, error) {
	if !validation.IsValidTableNumber(tableNumber) {
		return 0, ErrInvalidTableNumber
	}

	id, _, err := s.repo.GenerateInvoice(ctx, tableNumber)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Invoice возвращает счёт по идентификатору.
func (s *Service) Invoice(ctx context.Context, id int64) (*model.Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// InvoiceLines возвращает строки счёта для итогов и печатной формы.
func (s *Service) InvoiceLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error) {
	if _, err := s.repo.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.GetInvoiceLines(ctx, invoiceID)
}

// InvoiceGrandTotal пересчитывает итог счёта по текущим строкам.
// Счёт без строк даёт нулевой итог, а не ошибку.
func (s *Service) InvoiceGrandTotal(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	lines, err := s.repo.GetInvoiceLines(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total, nil
}

// EditInvoiceLines применяет пакет правок и удалений строк счёта.
// Сначала валидируется весь пакет: первая же некорректная правка
// отклоняет его целиком, в хранилище ничего не записывается.
func (s *Service) EditInvoiceLines(ctx context.Context, invoiceID int64, edits []LineEdit, removeOrderIDs []int64) error {
	updates := make([]repository.LineUpdate, 0, len(edits))
	for _, e := range edits {
		if !validation.IsValidQuantity(e.Quantity) {
			return fmt.Errorf("%w: order %d", ErrInvalidQuantity, e.OrderID)
		}
		if !validation.IsValidPercent(e.TaxPercent) || !validation.IsValidPercent(e.DiscountPercent) {
			return fmt.Errorf("%w: order %d", ErrInvalidPercent, e.OrderID)
		}

		item, err := s.repo.GetMenuItemByName(ctx, e.MenuName)
		if err != nil {
			if errors.Is(err, repository.ErrMenuItemNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownMenuItem, e.MenuName)
			}
			return err
		}

		updates = append(updates, repository.LineUpdate{
			OrderID:         e.OrderID,
			MenuItemID:      item.ID,
			Quantity:        e.Quantity,
			TaxPercent:      e.TaxPercent,
			DiscountPercent: e.DiscountPercent,
		})
	}

	return s.repo.EditInvoiceLines(ctx, invoiceID, updates, removeOrderIDs)
}

// VoidInvoice аннулирует счёт, не трогая его строки.
func (s *Service) VoidInvoice(ctx context.Context, invoiceID int64) error {
	return s.repo.VoidInvoice(ctx, invoiceID)
}
