package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/validation"
)

// DraftView — снимок черновика заказа для вызывающей стороны:
// позиции в стабильном порядке и заранее посчитанные итоги.
type DraftView struct {
	TableNumber     int
	Lines           []model.DraftLine
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
	Subtotal        decimal.Decimal
	GrandTotal      decimal.Decimal
}

// SelectTable открывает сессию заказа для столика. Для незарегистрированного
// столика возвращает ErrUnknownTable. Повторный выбор столика с уже открытым
// черновиком сохраняет черновик.
func (s *Service) SelectTable(ctx context.Context, tableNumber int) error {
	if !validation.IsValidTableNumber(tableNumber) {
		return ErrInvalidTableNumber
	}

	exists, err := s.repo.TableExists(ctx, tableNumber)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUnknownTable
	}

	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	if _, ok := s.drafts[tableNumber]; !ok {
		s.drafts[tableNumber] = model.NewDraftOrder(tableNumber)
	}
	return nil
}

// AddDraftLine увеличивает количество блюда в черновике столика.
// Название и цена блюда фиксируются при первом добавлении:
// изменение меню в процессе заказа уже добавленных позиций не меняет.
func (s *Service) AddDraftLine(ctx context.Context, tableNumber int, menuItemID int64, delta int) error {
	if !validation.IsValidQuantity(delta) {
		return ErrInvalidQuantity
	}

	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[tableNumber]
	if !ok {
		return ErrNoActiveDraft
	}

	line, ok := draft.Lines[menuItemID]
	if !ok {
		item, err := s.repo.GetMenuItem(ctx, menuItemID)
		if err != nil {
			return err
		}
		line = &model.DraftLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
		}
		draft.Lines[menuItemID] = line
	}

	line.Quantity += delta
	return nil
}

// RemoveDraftLine уменьшает количество блюда в черновике;
// при нулевом остатке позиция удаляется целиком.
func (s *Service) RemoveDraftLine(ctx context.Context, tableNumber int, menuItemID int64, delta int) error {
	if !validation.IsValidQuantity(delta) {
		return ErrInvalidQuantity
	}

	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[tableNumber]
	if !ok {
		return ErrNoActiveDraft
	}

	line, ok := draft.Lines[menuItemID]
	if !ok {
		return ErrUnknownMenuItem
	}

	line.Quantity -= delta
	if line.Quantity <= 0 {
		delete(draft.Lines, menuItemID)
	}
	return nil
}

// SetDraftTax устанавливает процент налога черновика.
func (s *Service) SetDraftTax(tableNumber int, percent decimal.Decimal) error {
	if !validation.IsValidPercent(percent) {
		return ErrInvalidPercent
	}

	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[tableNumber]
	if !ok {
		return ErrNoActiveDraft
	}

	draft.TaxPercent = percent
	return nil
}

// SetDraftDiscount устанавливает процент скидки черновика.
func (s *Service) SetDraftDiscount(tableNumber int, percent decimal.Decimal) error {
	if !validation.IsValidPercent(percent) {
		return ErrInvalidPercent
	}

	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[tableNumber]
	if !ok {
		return ErrNoActiveDraft
	}

	draft.DiscountPercent = percent
	return nil
}

// DraftSnapshot возвращает снимок черновика столика с итогами.
func (s *Service) DraftSnapshot(tableNumber int) (*DraftView, error) {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[tableNumber]
	if !ok {
		return nil, ErrNoActiveDraft
	}

	lines := make([]model.DraftLine, 0, len(draft.Lines))
	for _, l := range draft.Lines {
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MenuItemID < lines[j].MenuItemID })

	return &DraftView{
		TableNumber:     draft.TableNumber,
		Lines:           lines,
		TaxPercent:      draft.TaxPercent,
		DiscountPercent: draft.DiscountPercent,
		Subtotal:        draft.Subtotal(),
		GrandTotal:      draft.GrandTotal(),
	}, nil
}

// CommitDraft записывает позиции черновика как открытые строки заказа
// и очищает черновик. Черновик без позиций подтвердить нельзя.
func (s *Service) CommitDraft(ctx context.Context, tableNumber int) error {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	draft, ok := s.drafts[tableNumber]
	if !ok {
		return ErrNoActiveDraft
	}
	if len(draft.Lines) == 0 {
		return ErrEmptyOrder
	}

	lines := make([]model.OrderLine, 0, len(draft.Lines))
	for _, l := range draft.Lines {
		lines = append(lines, model.OrderLine{
			TableNumber:     tableNumber,
			MenuItemID:      l.MenuItemID,
			Quantity:        l.Quantity,
			TaxPercent:      draft.TaxPercent,
			DiscountPercent: draft.DiscountPercent,
			IsOpen:          true,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MenuItemID < lines[j].MenuItemID })

	if err := s.repo.CreateOrderLines(ctx, lines); err != nil {
		return err
	}

	delete(s.drafts, tableNumber)
	return nil
}

// ClearDraft отбрасывает черновик столика, ничего не сохраняя.
func (s *Service) ClearDraft(tableNumber int) {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()

	delete(s.drafts, tableNumber)
}
